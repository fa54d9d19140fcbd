package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedLocation(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO locations (name) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedAgent(t *testing.T, db *DB, name, phone, token string, locationID int64) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO agents (name, mobile_phone, pin_hash, api_token, location_id) VALUES (?, ?, 'hash', ?, ?)`,
		name, phone, token, locationID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO products (name) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedLot(t *testing.T, db *DB, name string, productID int64) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO lots (name, product_id) VALUES (?, ?)`, name, productID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedProject(t *testing.T, db *DB, name string, locationID int64, state string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO projects (name, location_id, state, start_date) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		name, locationID, state)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedQuant(t *testing.T, db *DB, productID, lotID, locationID int64, qty string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO stock_quants (product_id, lot_id, location_id, quantity) VALUES (?, ?, ?, ?)`,
		productID, lotID, locationID, qty)
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"locations",
		"agents",
		"racks",
		"products",
		"lots",
		"projects",
		"submissions",
		"scan_lines",
		"stock_quants",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestStateConstraints verifies the CHECK constraints on workflow states
func TestStateConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	locID := seedLocation(t, db, "Main Store")
	agentID := seedAgent(t, db, "Amal", "0912345678", "tok", locID)
	projID := seedProject(t, db, "August Count", locID, "in_progress")

	_, err := db.ExecContext(ctx,
		`INSERT INTO submissions (project_id, agent_id, state, submission_datetime)
		 VALUES (?, ?, 'bogus', CURRENT_TIMESTAMP)`,
		projID, agentID)
	require.Error(t, err, "should fail with invalid state")

	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (name, state) VALUES ('Bad', 'paused')`)
	require.Error(t, err, "should fail with invalid project state")
}

// TestSubmissionForeignKeys verifies referential integrity on submissions
func TestSubmissionForeignKeys(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO submissions (project_id, agent_id, state, submission_datetime)
		 VALUES (999, 999, 'draft', CURRENT_TIMESTAMP)`)
	require.Error(t, err, "should fail with invalid project_id and agent_id")
}
