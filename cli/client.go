// ABOUTME: Shared helpers for commands that talk to the forms API
// ABOUTME: Builds the API client from configuration and the stored token
package cli

import (
	"fmt"

	"github.com/harperreed/formsync/api"
	"github.com/harperreed/formsync/config"
)

// NewClient returns an API client for cfg.
func NewClient(cfg *config.Config) (*api.Client, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("API not configured: set api_base_url and project_id in %s or FORMSYNC_API_URL and FORMSYNC_PROJECT", config.Path())
	}

	ts, err := cfg.TokenSource()
	if err != nil {
		return nil, err
	}

	var opts []api.Option
	if cfg.AssetsURL != "" {
		opts = append(opts, api.WithAssetsURL(cfg.AssetsURL))
	}
	return api.New(cfg.APIBaseURL, ts, opts...)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
