// ABOUTME: Form CLI commands
// ABOUTME: List forms, show completion counts and pull the project snapshot
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
)

// ListFormsCommand lists forms of the snapshot
func ListFormsCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("forms list", flag.ExitOnError)
	template := fs.String("template", "", "Only forms of this template")
	object := fs.String("object", "", "Only forms attached to this object GUID")
	name := fs.String("name", "", "Filter by title")
	states := fs.String("states", "new,ongoing,finished", "Comma separated workflow states to show")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	filters, err := parseStates(*states)
	if err != nil {
		return err
	}
	filters.Name = *name

	stored, err := db.NewFormsRepository(database).List(context.Background(), cfg.ProjectID, db.FormQuery{
		TemplateID: *template,
		ObjectGUID: *object,
	})
	if err != nil {
		return fmt.Errorf("failed to list forms: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tSTATE\tTEMPLATE\tOBJECT\tMODIFIED\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t--------\t------\t--------\t--")
	shown := 0
	for _, sf := range stored {
		if !filters.FormPasses(sf.Form) || shown >= *limit {
			continue
		}
		shown++
		modified := "-"
		if ts := sf.Form.ModifiedOn.Timestamp; !ts.IsZero() {
			modified = ts.Local().Format(time.DateTime)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(sf.Form.Title), sf.Form.State, sf.TemplateID, orDash(sf.ObjectGUID), modified, sf.Form.ID)
	}
	_ = w.Flush()

	if shown == 0 {
		fmt.Println("No forms found")
		return nil
	}
	fmt.Printf("\nTotal: %d form(s)\n", shown)
	return nil
}

// FormStateCommand prints completion counts per template
func FormStateCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("forms state", flag.ExitOnError)
	_ = fs.Parse(args)
	ctx := context.Background()

	templates, err := db.NewTemplatesRepository(database).List(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	repo := db.NewFormsRepository(database)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TEMPLATE\tSTATE\tNEW\tONGOING\tFINISHED")
	for _, t := range templates {
		if fs.NArg() > 0 && t.ID != fs.Arg(0) {
			continue
		}
		counts, err := repo.CountByState(ctx, cfg.ProjectID, t.ID)
		if err != nil {
			return err
		}
		// Templates pulled without forms keep the server counts.
		if counts == (models.TemplateState{}) {
			counts = t.State
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", t.Title, counts.Overall(), counts.New, counts.Ongoing, counts.Finished)
	}
	_ = w.Flush()

	if state, err := db.GetSyncState(database, cfg.ProjectID); err == nil && state != nil && state.LastSyncTime != nil {
		fmt.Printf("\nLast pull: %s (%d template(s), %d failed)\n", state.LastSyncTime.Local().Format(time.DateTime), state.Templates, state.Failed)
	}
	return nil
}

// PullCommand replaces the local snapshot with the server state
func PullCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("forms pull", flag.ExitOnError)
	timeout := fs.Duration("timeout", 2*time.Minute, "Give up after this long")
	_ = fs.Parse(args)

	client, err := NewClient(cfg)
	if err != nil {
		return err
	}
	history, err := db.OpenHistory(cfg.HistoryDir())
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.UpdateSyncStatus(database, cfg.ProjectID, "syncing", nil); err != nil {
		return err
	}
	snap, err := Pull(ctx, database, history, client, cfg.ProjectID)
	if err != nil {
		msg := err.Error()
		_ = db.UpdateSyncStatus(database, cfg.ProjectID, "error", &msg)
		return fmt.Errorf("pull failed: %w", err)
	}

	total := len(snap.ObjectForms)
	for _, t := range snap.Templates {
		total += len(t.Forms)
	}
	fmt.Printf("✓ Pulled %d template(s) and %d form(s)\n", len(snap.Templates), total)
	if snap.Failed > 0 {
		fmt.Printf("  %d request(s) failed; run pull again to retry\n", snap.Failed)
	}
	return nil
}

func parseStates(list string) (forms.Filters, error) {
	f := forms.DefaultFilters()
	f.New, f.Ongoing, f.Finished = false, false, false
	for _, s := range strings.Split(list, ",") {
		switch models.WorkflowState(strings.TrimSpace(s)) {
		case models.StateNew:
			f.New = true
		case models.StateOngoing:
			f.Ongoing = true
		case models.StateFinished:
			f.Finished = true
		case "":
		default:
			return forms.Filters{}, fmt.Errorf("invalid state: %s (valid: new, ongoing, finished)", s)
		}
	}
	return f, nil
}
