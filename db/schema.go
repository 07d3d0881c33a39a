// ABOUTME: Database schema definitions for the local snapshot store
// ABOUTME: Templates, forms and per-project sync state
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	project_id TEXT NOT NULL,
	id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('search', 'location')),
	state TEXT NOT NULL CHECK(state IN ('new', 'ongoing', 'finished')),
	data TEXT NOT NULL,
	synced_at DATETIME NOT NULL,
	PRIMARY KEY (project_id, id)
);

CREATE INDEX IF NOT EXISTS idx_templates_title ON templates(project_id, title);

CREATE TABLE IF NOT EXISTS forms (
	project_id TEXT NOT NULL,
	id TEXT NOT NULL,
	template_id TEXT NOT NULL,
	object_guid TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	state TEXT NOT NULL CHECK(state IN ('new', 'ongoing', 'finished')),
	data TEXT NOT NULL,
	modified_at DATETIME,
	synced_at DATETIME NOT NULL,
	PRIMARY KEY (project_id, id),
	FOREIGN KEY (project_id, template_id) REFERENCES templates(project_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_forms_template ON forms(project_id, template_id);
CREATE INDEX IF NOT EXISTS idx_forms_state ON forms(project_id, state);
CREATE INDEX IF NOT EXISTS idx_forms_object ON forms(project_id, object_guid);

CREATE TABLE IF NOT EXISTS sync_state (
	project_id TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	templates INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
