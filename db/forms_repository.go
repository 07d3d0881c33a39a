// ABOUTME: Repository for forms synced from the forms API
// ABOUTME: Location forms are keyed by template, search forms also by object GUID
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
	ErrFormNotFound = errors.New("form not found")
	ErrInvalidForm  = errors.New("form needs an id and a template")
)

// StoredForm is a form row with its owning template and object.
type StoredForm struct {
	TemplateID string
	ObjectGUID string
	Form       models.Form
}

type FormsRepository struct {
	db *sql.DB
}

func NewFormsRepository(db *sql.DB) *FormsRepository {
	return &FormsRepository{db: db}
}

// Upsert stores a form. The template must already be stored.
func (r *FormsRepository) Upsert(ctx context.Context, projectID string, f StoredForm) error {
	return upsertForm(ctx, r.db, projectID, f)
}

func upsertForm(ctx context.Context, db execer, projectID string, f StoredForm) error {
	if f.Form.ID == "" || f.TemplateID == "" {
		return ErrInvalidForm
	}
	data, err := json.Marshal(f.Form)
	if err != nil {
		return err
	}

	var modified sql.NullTime
	if !f.Form.ModifiedOn.Timestamp.IsZero() {
		modified = sql.NullTime{Time: f.Form.ModifiedOn.Timestamp, Valid: true}
	}
	state := f.Form.State
	if !state.Valid() {
		state = models.StateNew
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO forms (project_id, id, template_id, object_guid, title, state, data, modified_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, id) DO UPDATE SET
			template_id = excluded.template_id,
			object_guid = excluded.object_guid,
			title = excluded.title,
			state = excluded.state,
			data = excluded.data,
			modified_at = excluded.modified_at,
			synced_at = excluded.synced_at
	`, projectID, f.Form.ID, f.TemplateID, f.ObjectGUID, f.Form.Title, state, data, modified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert form: %w", err)
	}
	return nil
}

func (r *FormsRepository) Get(ctx context.Context, projectID, id string) (*StoredForm, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT template_id, object_guid, data FROM forms WHERE project_id = ? AND id = ?
	`, projectID, id)

	sf, err := scanForm(row)
	if err == sql.ErrNoRows {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return sf, nil
}

// FormQuery filters List. Empty members match everything.
type FormQuery struct {
	TemplateID string
	ObjectGUID string
	State      models.WorkflowState
}

// List returns matching forms ordered by title.
func (r *FormsRepository) List(ctx context.Context, projectID string, q FormQuery) ([]StoredForm, error) {
	query := `SELECT template_id, object_guid, data FROM forms WHERE project_id = ?`
	args := []any{projectID}
	if q.TemplateID != "" {
		query += ` AND template_id = ?`
		args = append(args, q.TemplateID)
	}
	if q.ObjectGUID != "" {
		query += ` AND object_guid = ?`
		args = append(args, q.ObjectGUID)
	}
	if q.State != "" {
		query += ` AND state = ?`
		args = append(args, q.State)
	}
	query += ` ORDER BY title, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredForm
	for rows.Next() {
		sf, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sf)
	}
	return out, rows.Err()
}

// CountByState counts the forms of a template per workflow state.
func (r *FormsRepository) CountByState(ctx context.Context, projectID, templateID string) (models.TemplateState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT state, COUNT(*) FROM forms
		WHERE project_id = ? AND template_id = ?
		GROUP BY state
	`, projectID, templateID)
	if err != nil {
		return models.TemplateState{}, err
	}
	defer func() { _ = rows.Close() }()

	var counts models.TemplateState
	for rows.Next() {
		var state models.WorkflowState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return models.TemplateState{}, err
		}
		switch state {
		case models.StateNew:
			counts.New = n
		case models.StateOngoing:
			counts.Ongoing = n
		case models.StateFinished:
			counts.Finished = n
		}
	}
	return counts, rows.Err()
}

func (r *FormsRepository) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrFormNotFound
	}
	return nil
}

// DeleteByTemplate removes every form of a template and reports how many
// were removed.
func (r *FormsRepository) DeleteByTemplate(ctx context.Context, projectID, templateID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE project_id = ? AND template_id = ?`, projectID, templateID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(s scanner) (*StoredForm, error) {
	var sf StoredForm
	var data []byte
	if err := s.Scan(&sf.TemplateID, &sf.ObjectGUID, &data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &sf.Form); err != nil {
		return nil, fmt.Errorf("failed to decode form: %w", err)
	}
	return &sf, nil
}
