// ABOUTME: Repository for templates synced from the forms API
// ABOUTME: Stores the template body as JSON with indexed title, type and state columns
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/formsync/models"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidTemplate  = errors.New("invalid template")
)

// TemplatesRepository persists template snapshots per project.
type TemplatesRepository struct {
	db *sql.DB
}

func NewTemplatesRepository(db *sql.DB) *TemplatesRepository {
	return &TemplatesRepository{db: db}
}

// Upsert stores a template. Location forms are stored separately by
// FormsRepository and are not part of the row.
func (r *TemplatesRepository) Upsert(ctx context.Context, projectID string, t *models.Template) error {
	return upsertTemplate(ctx, r.db, projectID, t)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertTemplate(ctx context.Context, db execer, projectID string, t *models.Template) error {
	if t == nil || t.ID == "" {
		return ErrInvalidTemplate
	}

	body := *t
	body.Forms = nil
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO templates (project_id, id, title, type, state, data, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, id) DO UPDATE SET
			title = excluded.title,
			type = excluded.type,
			state = excluded.state,
			data = excluded.data,
			synced_at = excluded.synced_at
	`, projectID, t.ID, t.Title, t.Type, t.State.Overall(), data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}
	return nil
}

// Get returns a template without its forms.
func (r *TemplatesRepository) Get(ctx context.Context, projectID, id string) (*models.Template, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM templates WHERE project_id = ? AND id = ?
	`, projectID, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", id, err)
	}
	return &t, nil
}

// List returns the templates of a project ordered by title.
func (r *TemplatesRepository) List(ctx context.Context, projectID string) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM templates WHERE project_id = ? ORDER BY title, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Template
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var t models.Template
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a template and, by cascade, its forms.
func (r *TemplatesRepository) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM templates WHERE project_id = ? AND id = ?
	`, projectID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
