// ABOUTME: Browse command launching the terminal forms browser
// ABOUTME: Reads the local snapshot, so it works offline
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/tui"
)

// BrowseCommand opens the TUI over the pulled snapshot
func BrowseCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	_ = fs.Parse(args)

	fm, err := tui.LoadSnapshot(context.Background(), database, cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(fm.Templates()) == 0 {
		return fmt.Errorf("no templates for project %q; run 'formsync forms pull' first", cfg.ProjectID)
	}
	return tui.Run(fm)
}
