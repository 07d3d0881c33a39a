// ABOUTME: Database operations for per-project sync state and snapshots
// ABOUTME: A pull writes every template and form of a project in one transaction
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/formsync/models"
)

// SyncState represents the last pull of a project.
type SyncState struct {
	ProjectID    string
	LastSyncTime *time.Time
	Templates    int
	Failed       int
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetSyncState retrieves the sync state for a project, or nil if it was
// never pulled.
func GetSyncState(db *sql.DB, projectID string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var status sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT project_id, last_sync_time, templates, failed, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE project_id = ?
	`, projectID).Scan(
		&state.ProjectID,
		&lastSyncTime,
		&state.Templates,
		&state.Failed,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	state.Status = status.String
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a project.
func UpdateSyncStatus(db *sql.DB, projectID, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (project_id, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, projectID, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// Snapshot is everything pulled for a project.
type Snapshot struct {
	Templates   []models.Template
	ObjectForms []StoredForm
	Failed      int
}

// SaveSnapshot replaces the stored templates and forms of a project and
// marks the pull as finished.
func SaveSnapshot(ctx context.Context, db *sql.DB, projectID string, snap Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM forms WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE project_id = ?`, projectID); err != nil {
		return err
	}

	for i := range snap.Templates {
		t := &snap.Templates[i]
		if err := upsertTemplate(ctx, tx, projectID, t); err != nil {
			return err
		}
		for _, f := range t.Forms {
			if err := upsertForm(ctx, tx, projectID, StoredForm{TemplateID: t.ID, Form: f}); err != nil {
				return err
			}
		}
	}
	for _, sf := range snap.ObjectForms {
		if err := upsertForm(ctx, tx, projectID, sf); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_state (project_id, last_sync_time, templates, failed, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(project_id) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			templates = excluded.templates,
			failed = excluded.failed,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, projectID, time.Now().UTC(), len(snap.Templates), snap.Failed)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	return tx.Commit()
}
