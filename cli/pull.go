// ABOUTME: Pulls every template and form of a project into the local snapshot
// ABOUTME: Also appends each pulled form to the history store
package cli

import (
	"context"
	"database/sql"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/api"
	"github.com/harperreed/formsync/db"
	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
)

// Pull loads the project into a model and replaces the stored snapshot.
// A search template's object forms are attached to the first search
// template listing the object. history may be nil.
func Pull(ctx context.Context, database *sql.DB, history *db.HistoryStore, client *api.Client, projectID string) (db.Snapshot, error) {
	logger := log.WithPrefix("pull")
	model := forms.NewModel()

	res, err := model.LoadAllTemplates(ctx, client, projectID)
	if err != nil {
		return db.Snapshot{}, err
	}

	snap := db.Snapshot{Failed: res.Failed}
	seen := make(map[string]bool)
	for _, t := range model.Templates() {
		if t.Type == models.TemplateLocation {
			t.Forms = model.TemplateLocationForms(t.ID)
		}
		snap.Templates = append(snap.Templates, t)

		if t.Type != models.TemplateSearch {
			continue
		}
		for _, obj := range t.Objects {
			if seen[obj.GUID] {
				continue
			}
			seen[obj.GUID] = true

			objectForms, err := client.ObjectForms(ctx, projectID, obj.GUID)
			if err != nil {
				if ctx.Err() != nil {
					return db.Snapshot{}, ctx.Err()
				}
				logger.Warn("failed to load object forms", "object", obj.GUID, "err", err)
				snap.Failed++
				continue
			}
			for _, f := range objectForms {
				snap.ObjectForms = append(snap.ObjectForms, db.StoredForm{TemplateID: t.ID, ObjectGUID: obj.GUID, Form: f})
			}
		}
	}

	if err := db.SaveSnapshot(ctx, database, projectID, snap); err != nil {
		return db.Snapshot{}, err
	}

	if history != nil {
		for _, t := range snap.Templates {
			for _, f := range t.Forms {
				recordHistory(history, projectID, f)
			}
		}
		for _, sf := range snap.ObjectForms {
			recordHistory(history, projectID, sf.Form)
		}
	}

	logger.Info("pulled project", "project", projectID, "templates", len(snap.Templates), "failed", snap.Failed)
	return snap, nil
}

// recordHistory keeps one entry per server modification time.
func recordHistory(history *db.HistoryStore, projectID string, f models.Form) {
	if f.ModifiedOn.Timestamp.IsZero() {
		return
	}
	err := history.Append(projectID, models.HistoryEntry{Timestamp: f.ModifiedOn.Timestamp, Form: f})
	if err != nil && !errors.Is(err, db.ErrHistoryImmutable) {
		log.WithPrefix("pull").Warn("failed to record history", "form", f.ID, "err", err)
	}
}
