package repository

import "database/sql"

// schema is applied on startup; statements are idempotent.
// Quotes must exist before proposals because of the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS quotes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    items TEXT NOT NULL,
    invited_suppliers TEXT NOT NULL,
    deadline INTEGER,
    matrix_override INTEGER NOT NULL DEFAULT 0,
    matrix_visible INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS proposals (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    quote_id TEXT NOT NULL,
    supplier_id TEXT NOT NULL,
    payload TEXT NOT NULL,
    submitted_at INTEGER NOT NULL,
    UNIQUE (quote_id, supplier_id),
    FOREIGN KEY (quote_id) REFERENCES quotes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_proposals_quote_id ON proposals(quote_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
