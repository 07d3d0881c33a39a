// ABOUTME: HTTP client for the forms resource API with bearer token auth
// ABOUTME: GET responses are memoised under invalidation tags
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client talks to the forms API.
type Client struct {
	base      *url.URL
	assetsURL string
	baseHTTP  *http.Client
	http      *http.Client
	cache     *TagCache
	logger    *log.Logger
}

type Option func(*Client)

// WithHTTPClient sets the client used underneath the token transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.baseHTTP = hc
		}
	}
}

// WithAssetsURL sets the absolute URL of the marker asset index. By default
// it is served by the API under assets/index.json.
func WithAssetsURL(u string) Option {
	return func(c *Client) {
		c.assetsURL = u
	}
}

func WithTagCache(tc *TagCache) Option {
	return func(c *Client) {
		if tc != nil {
			c.cache = tc
		}
	}
}

// New creates a client for baseURL. A nil token source sends
// unauthenticated requests.
func New(baseURL string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		base:     base,
		baseHTTP: &http.Client{Timeout: defaultTimeout},
		cache:    NewTagCache(),
		logger:   log.WithPrefix("api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.baseHTTP)
	c.http = oauth2.NewClient(ctx, ts)
	return c, nil
}

// NewWithToken creates a client authenticating with a static bearer token.
func NewWithToken(baseURL, token string, opts ...Option) (*Client, error) {
	var ts oauth2.TokenSource
	if token != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
	return New(baseURL, ts, opts...)
}

// Cache returns the response cache.
func (c *Client) Cache() *TagCache {
	return c.cache
}

func (c *Client) endpoint(elems ...string) string {
	return c.base.JoinPath(elems...).String()
}

// send issues a request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, method, target string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:  method,
			Path:    req.URL.Path,
			Code:    resp.StatusCode,
			Message: errorMessage(data),
		}
	}
	return data, nil
}

// errorMessage extracts {"error": "..."} bodies.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

func decode(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getCached serves a GET from the tag cache when possible.
func (c *Client) getCached(ctx context.Context, target string, out any, tags ...string) error {
	if data, ok := c.cache.Get(target); ok {
		return decode(data, out)
	}
	data, err := c.send(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	if err := decode(data, out); err != nil {
		return err
	}
	c.cache.Put(target, data, tags...)
	return nil
}

// mutate issues a write and invalidates tags once it succeeded.
func (c *Client) mutate(ctx context.Context, method, target string, body, out any, tags ...string) error {
	data, err := c.send(ctx, method, target, body)
	if err != nil {
		return err
	}
	c.cache.Invalidate(tags...)
	c.logger.Debug("invalidated", "method", method, "tags", tags)
	return decode(data, out)
}
