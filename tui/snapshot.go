// ABOUTME: Loads the local snapshot into a forms model for browsing
// ABOUTME: Location forms are merged by template, search forms by object GUID
package tui

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
)

// LoadSnapshot builds a forms model from the stored templates and forms.
func LoadSnapshot(ctx context.Context, database *sql.DB, projectID string) (*forms.Model, error) {
	templates, err := db.NewTemplatesRepository(database).List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	repo := db.NewFormsRepository(database)

	fm := forms.NewModel()
	for _, t := range templates {
		stored, err := repo.List(ctx, projectID, db.FormQuery{TemplateID: t.ID})
		if err != nil {
			return nil, err
		}
		if t.Type == models.TemplateLocation {
			for _, sf := range stored {
				t.Forms = append(t.Forms, sf.Form)
			}
			fm.PutTemplate(t)
			continue
		}
		fm.PutTemplate(t)
		for _, sf := range stored {
			fm.SetObjectForm(t.ID, sf.ObjectGUID, sf.Form)
		}
	}
	return fm, nil
}

// Run starts the full-screen browser.
func Run(fm *forms.Model) error {
	_, err := tea.NewProgram(NewModel(fm), tea.WithAltScreen()).Run()
	return err
}
