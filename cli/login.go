// ABOUTME: Login CLI command
// ABOUTME: Saves the API location and a bearer token read without echo
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/harperreed/formsync/config"
)

// LoginCommand stores API settings and a token.
func LoginCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	apiURL := fs.String("url", cfg.APIBaseURL, "Forms API base URL")
	project := fs.String("project", cfg.ProjectID, "Project ID")
	assets := fs.String("assets", cfg.AssetsURL, "Marker asset index URL (default: served by the API)")
	verify := fs.Bool("verify", true, "Check the token against the API before saving")
	_ = fs.Parse(args)

	cfg.APIBaseURL = *apiURL
	cfg.ProjectID = *project
	cfg.AssetsURL = *assets
	if !cfg.IsConfigured() {
		return fmt.Errorf("--url and --project are required")
	}

	fmt.Print("API token: ")
	tokenBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	fmt.Println()
	token := &oauth2.Token{AccessToken: strings.TrimSpace(string(tokenBytes)), TokenType: "Bearer"}
	if token.AccessToken == "" {
		return fmt.Errorf("token is empty")
	}

	if *verify {
		probe := *cfg
		probe.Token = token.AccessToken
		client, err := NewClient(&probe)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		ids, err := client.TemplateIDs(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		fmt.Printf("✓ Token accepted, project has %d template(s)\n", len(ids))
	}

	if err := config.SaveToken(token); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("✓ Configuration saved to %s\n", config.Path())
	fmt.Println("\nNext step: Run 'formsync forms pull' to download templates")
	return nil
}
