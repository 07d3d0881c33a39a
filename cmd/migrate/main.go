// ABOUTME: Migration utility for snapshot databases written by older releases.
// ABOUTME: Provides dry-run and backup capabilities for safe schema upgrades.

package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	dbPath := flag.String("db", cfg.DatabasePath(), "Path to database file")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	force := flag.Bool("force", false, "Drop tables the current schema does not use")
	flag.Parse()

	report, err := db.Migrate(*dbPath, db.MigrateOptions{DryRun: *dryRun, Backup: *backup, Force: *force})
	if err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	if *dryRun {
		log.Info("[DRY RUN] no changes made", "tables", report.Tables, "would_drop", report.Stale, "would_create", report.Created)
		return
	}
	log.Info("migration completed successfully", "dropped", report.Dropped, "created", report.Created)
}
