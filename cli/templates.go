// ABOUTME: Template CLI commands
// ABOUTME: List, show and delete templates of the local snapshot
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/formsync/codec"
	"github.com/harperreed/formsync/config"
	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
)

// ListTemplatesCommand lists the pulled templates
func ListTemplatesCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("templates list", flag.ExitOnError)
	name := fs.String("name", "", "Filter by title")
	kind := fs.String("kind", "", "Only templates of this kind (search, location)")
	_ = fs.Parse(args)

	filters := forms.DefaultFilters()
	filters.Name = *name
	switch models.TemplateType(*kind) {
	case "":
	case models.TemplateSearch:
		filters.Location = false
	case models.TemplateLocation:
		filters.Search = false
	default:
		return fmt.Errorf("invalid kind: %s (valid: search, location)", *kind)
	}

	templates, err := db.NewTemplatesRepository(database).List(context.Background(), cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	templates = filters.ApplyTemplates(templates)

	if len(templates) == 0 {
		fmt.Println("No templates found (run 'formsync forms pull' first)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tKIND\tSTATE\tNEW\tONGOING\tFINISHED\tID")
	_, _ = fmt.Fprintln(w, "-----\t----\t-----\t---\t-------\t--------\t--")
	for _, t := range templates {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			t.Title, t.Type, t.State.Overall(), t.State.New, t.State.Ongoing, t.State.Finished, t.ID)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d template(s)\n", len(templates))
	return nil
}

// ShowTemplateCommand prints a template and its fields
func ShowTemplateCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("templates show", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: formsync templates show <id>")
	}

	t, err := db.NewTemplatesRepository(database).Get(context.Background(), cfg.ProjectID, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", t.Title, t.Type)
	fmt.Printf("  ID:    %s\n", t.ID)
	fmt.Printf("  State: %s (%d new, %d ongoing, %d finished)\n", t.State.Overall(), t.State.New, t.State.Ongoing, t.State.Finished)
	if t.Marker != "" {
		fmt.Printf("  Marker: %s\n", t.Marker)
	}
	if t.Readonly {
		fmt.Println("  Read only")
	}

	fmt.Println("\nFields:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, f := range t.Fields {
		kind := "-"
		if items, err := codec.ToFormItems([]models.FormField{f}); err == nil {
			kind = string(items[0].Type)
		}
		required := ""
		if f.Required {
			required = "required"
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", orDash(f.Label), f.Type, kind, required)
	}
	return w.Flush()
}

// DeleteTemplateCommand removes a template locally, and on the server with --remote
func DeleteTemplateCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("templates delete", flag.ExitOnError)
	remote := fs.Bool("remote", false, "Also delete the template on the server")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: formsync templates delete [--remote] <id>")
	}
	id := fs.Arg(0)
	ctx := context.Background()

	if *remote {
		client, err := NewClient(cfg)
		if err != nil {
			return err
		}
		if err := client.DeleteTemplate(ctx, cfg.ProjectID, id); err != nil {
			return err
		}
	}

	err := db.NewTemplatesRepository(database).Delete(ctx, cfg.ProjectID, id)
	if err != nil && !(*remote && errors.Is(err, db.ErrTemplateNotFound)) {
		return err
	}
	fmt.Printf("✓ Template deleted: %s\n", id)
	return nil
}
