// ABOUTME: Bearer token storage for the forms API at XDG paths
// ABOUTME: Token files are written owner-only and fed to oauth2 as a static source
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

var ErrNoToken = errors.New("no API token configured; run 'formsync login'")

// TokenPath returns where the stored API token lives.
func TokenPath() string {
	return filepath.Join(Dir(), "token.json")
}

// SaveToken stores token in the XDG data directory.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken loads the stored API token.
func LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// TokenSource prefers the configured token and falls back to the stored one.
func (c *Config) TokenSource() (oauth2.TokenSource, error) {
	if c.Token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}), nil
	}
	token, err := LoadToken()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, ErrNoToken
	}
	return oauth2.StaticTokenSource(token), nil
}
