package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema. Quantities are stored as TEXT and read
// back through decimal scanning to keep exact arithmetic.
func (db *DB) RunMigrations() error {
	migration := `
-- Stock locations (master data)
CREATE TABLE locations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);

-- Counting agents; api_token is the rotating session credential
CREATE TABLE agents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    mobile_phone TEXT NOT NULL UNIQUE,
    pin_hash TEXT NOT NULL,
    api_token TEXT UNIQUE,
    location_id INTEGER REFERENCES locations(id)
);
CREATE INDEX idx_agents_token ON agents(api_token);

-- Storage racks within a location (master data)
CREATE TABLE racks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    location_id INTEGER NOT NULL REFERENCES locations(id),
    active INTEGER NOT NULL DEFAULT 1,
    note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX idx_racks_location ON racks(location_id);

-- Products (master data)
CREATE TABLE products (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    default_code TEXT NOT NULL DEFAULT '',
    uom TEXT NOT NULL DEFAULT 'Units'
);

-- Lots: identified stock units of a product, immutable
CREATE TABLE lots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    product_id INTEGER NOT NULL REFERENCES products(id)
);
CREATE INDEX idx_lots_product ON lots(product_id);

-- Counting projects, one location each
CREATE TABLE projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    location_id INTEGER REFERENCES locations(id),
    state TEXT NOT NULL CHECK(state IN ('not_started', 'in_progress', 'completed', 'cancelled')),
    start_date TIMESTAMP
);
CREATE INDEX idx_projects_location ON projects(location_id);
CREATE INDEX idx_projects_state ON projects(state);

-- Batch count events
CREATE TABLE submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT NOT NULL DEFAULT '',
    project_id INTEGER NOT NULL REFERENCES projects(id),
    agent_id INTEGER NOT NULL REFERENCES agents(id),
    product_id INTEGER REFERENCES products(id),
    rack_id INTEGER REFERENCES racks(id),
    previous_submission_id INTEGER REFERENCES submissions(id),
    notes TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL CHECK(state IN ('draft', 'submitted', 'validated', 'cancelled')),
    submission_datetime TIMESTAMP NOT NULL,
    validation_datetime TIMESTAMP,
    validated_by TEXT
);
CREATE INDEX idx_submissions_agent ON submissions(agent_id);
CREATE INDEX idx_submissions_project ON submissions(project_id);
CREATE INDEX idx_submissions_state ON submissions(state);

-- One counted lot per row
CREATE TABLE scan_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    submission_id INTEGER NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
    project_id INTEGER NOT NULL REFERENCES projects(id),
    product_id INTEGER NOT NULL REFERENCES products(id),
    lot_id INTEGER NOT NULL REFERENCES lots(id),
    scanned_lot_name TEXT NOT NULL DEFAULT '',
    scanned_qty TEXT NOT NULL,
    theoretical_qty TEXT NOT NULL,
    change_qty TEXT NOT NULL,
    rack_id INTEGER REFERENCES racks(id),
    agent_id INTEGER NOT NULL REFERENCES agents(id),
    notes TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL CHECK(state IN ('draft', 'submitted', 'validated'))
);
CREATE INDEX idx_scan_lines_submission ON scan_lines(submission_id);
CREATE INDEX idx_scan_lines_lot ON scan_lines(lot_id);
CREATE INDEX idx_scan_lines_state ON scan_lines(state);

-- Stock ledger read by reconciliation
CREATE TABLE stock_quants (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id INTEGER NOT NULL REFERENCES products(id),
    lot_id INTEGER REFERENCES lots(id),
    location_id INTEGER NOT NULL REFERENCES locations(id),
    quantity TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX idx_quants_product_location ON stock_quants(product_id, location_id);
CREATE INDEX idx_quants_lot ON stock_quants(lot_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
