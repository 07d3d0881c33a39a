// ABOUTME: Upgrades an existing snapshot database to the current schema
// ABOUTME: Backs up the file, drops tables the schema no longer has and reapplies it
package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SchemaTables are the tables InitSchema creates.
var SchemaTables = []string{"forms", "sync_state", "templates"}

// MigrateOptions controls Migrate.
type MigrateOptions struct {
	DryRun bool
	Backup bool

	// Force allows dropping stale tables, which loses their rows. The
	// snapshot can always be pulled again.
	Force bool
}

// MigrateReport describes what Migrate found and did.
type MigrateReport struct {
	BackupPath string
	Tables     []string
	Stale      []string
	Dropped    []string
	Created    []string
}

// Migrate upgrades the database at path in place.
func Migrate(path string, opts MigrateOptions) (MigrateReport, error) {
	logger := log.WithPrefix("migrate")
	var report MigrateReport

	if _, err := os.Stat(path); err != nil {
		return report, fmt.Errorf("database file does not exist: %s", path)
	}

	if opts.Backup && !opts.DryRun {
		report.BackupPath = fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return report, fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(report.BackupPath, input, 0600); err != nil {
			return report, fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Info("backup created", "path", report.BackupPath)
	}

	database, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return report, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	report.Tables, err = Tables(database)
	if err != nil {
		return report, fmt.Errorf("failed to get current tables: %w", err)
	}

	existing := make(map[string]bool, len(report.Tables))
	for _, t := range report.Tables {
		existing[t] = true
		if !isSchemaTable(t) {
			report.Stale = append(report.Stale, t)
		}
	}
	for _, t := range SchemaTables {
		if !existing[t] {
			report.Created = append(report.Created, t)
		}
	}

	if len(report.Stale) > 0 && !opts.Force && !opts.DryRun {
		return report, fmt.Errorf("migration would drop %v; rerun with -force", report.Stale)
	}
	if opts.DryRun {
		return report, nil
	}

	for _, t := range report.Stale {
		// Names come from sqlite_master, not from user input.
		if _, err := database.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", t)); err != nil {
			return report, fmt.Errorf("failed to drop table %s: %w", t, err)
		}
		report.Dropped = append(report.Dropped, t)
		logger.Info("dropped table", "table", t)
	}

	if err := InitSchema(database); err != nil {
		return report, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return report, nil
}

// Tables lists the user tables of a database.
func Tables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func isSchemaTable(name string) bool {
	for _, t := range SchemaTables {
		if name == t {
			return true
		}
	}
	return false
}
