package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/submission"
	"github.com/castral/stocktake/internal/repository"
)

// ScanLineRepository implements submission.ScanLineRepository for SQLite
type ScanLineRepository struct {
	db *DB
}

// NewScanLineRepository creates a new ScanLineRepository
func NewScanLineRepository(db *DB) *ScanLineRepository {
	return &ScanLineRepository{db: db}
}

const scanLineColumns = `
	sl.id, sl.submission_id, sl.project_id, sl.product_id, pr.name,
	sl.lot_id, lt.name, sl.scanned_lot_name,
	sl.scanned_qty, sl.theoretical_qty, sl.change_qty,
	sl.rack_id, COALESCE(rk.name, ''), sl.agent_id, sl.notes, sl.state
`

const scanLineJoins = `
	FROM scan_lines sl
	JOIN products pr ON pr.id = sl.product_id
	JOIN lots lt ON lt.id = sl.lot_id
	LEFT JOIN racks rk ON rk.id = sl.rack_id
`

func scanScanLine(row rowScanner) (*submission.ScanLine, error) {
	var line submission.ScanLine
	var rackID sql.NullInt64
	err := row.Scan(
		&line.ID,
		&line.SubmissionID,
		&line.ProjectID,
		&line.ProductID,
		&line.ProductName,
		&line.LotID,
		&line.LotName,
		&line.ScannedLotName,
		&line.ScannedQty,
		&line.TheoreticalQty,
		&line.ChangeQty,
		&rackID,
		&line.RackName,
		&line.AgentID,
		&line.Notes,
		&line.State,
	)
	if err != nil {
		return nil, err
	}
	if rackID.Valid {
		line.RackID = &rackID.Int64
	}
	return &line, nil
}

// Create inserts a scan line and writes the generated id back
func (r *ScanLineRepository) Create(ctx context.Context, line *submission.ScanLine) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_lines (submission_id, project_id, product_id, lot_id,
			scanned_lot_name, scanned_qty, theoretical_qty, change_qty,
			rack_id, agent_id, notes, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		line.SubmissionID,
		line.ProjectID,
		line.ProductID,
		line.LotID,
		line.ScannedLotName,
		line.ScannedQty,
		line.TheoreticalQty,
		line.ChangeQty,
		line.RackID,
		line.AgentID,
		line.Notes,
		line.State,
	)
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to create scan line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scan line id: %w", err)
	}
	line.ID = id

	return nil
}

// Get retrieves a scan line by ID
func (r *ScanLineRepository) Get(ctx context.Context, id int64) (*submission.ScanLine, error) {
	query := `SELECT ` + scanLineColumns + scanLineJoins + ` WHERE sl.id = ?`

	line, err := scanScanLine(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan line: %w", err)
	}

	return line, nil
}

// Update persists the mutable fields of a scan line
func (r *ScanLineRepository) Update(ctx context.Context, line *submission.ScanLine) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE scan_lines
		SET scanned_qty = ?, theoretical_qty = ?, change_qty = ?,
			rack_id = ?, notes = ?, state = ?
		WHERE id = ?
	`,
		line.ScannedQty,
		line.TheoreticalQty,
		line.ChangeQty,
		line.RackID,
		line.Notes,
		line.State,
		line.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a scan line
func (r *ScanLineRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scan_lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// lineOrders whitelists client-supplied sort expressions
var lineOrders = map[string]string{
	"":        "sl.id ASC",
	"id asc":  "sl.id ASC",
	"id desc": "sl.id DESC",
}

func (r *ScanLineRepository) list(ctx context.Context, query string, args ...any) ([]submission.ScanLine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan lines: %w", err)
	}
	defer rows.Close()

	var lines []submission.ScanLine
	for rows.Next() {
		line, err := scanScanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan line: %w", err)
		}
		lines = append(lines, *line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan line rows: %w", err)
	}

	return lines, nil
}

// ListBySubmission returns all scan lines of a submission
func (r *ScanLineRepository) ListBySubmission(ctx context.Context, submissionID int64, order string) ([]submission.ScanLine, error) {
	orderBy, ok := lineOrders[order]
	if !ok {
		orderBy = lineOrders[""]
	}

	query := `SELECT ` + scanLineColumns + scanLineJoins +
		` WHERE sl.submission_id = ? ORDER BY ` + orderBy
	return r.list(ctx, query, submissionID)
}

// ListBySubmissionAndLot returns the scan lines of a submission for one lot
func (r *ScanLineRepository) ListBySubmissionAndLot(ctx context.Context, submissionID, lotID int64) ([]submission.ScanLine, error) {
	query := `SELECT ` + scanLineColumns + scanLineJoins +
		` WHERE sl.submission_id = ? AND sl.lot_id = ? ORDER BY sl.id ASC`
	return r.list(ctx, query, submissionID, lotID)
}

// ValidatedQuantityForLot sums the scanned quantities of the lot's validated
// scan lines across all locations
func (r *ScanLineRepository) ValidatedQuantityForLot(ctx context.Context, lotID int64) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scanned_qty FROM scan_lines WHERE lot_id = ? AND state = 'validated'
	`, lotID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query validated quantities: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var qty decimal.Decimal
		if err := rows.Scan(&qty); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan validated quantity: %w", err)
		}
		total = total.Add(qty)
	}

	if err = rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating validated quantity rows: %w", err)
	}

	return total, nil
}
