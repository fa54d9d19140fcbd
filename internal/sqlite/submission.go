package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/castral/stocktake/internal/domain/submission"
	"github.com/castral/stocktake/internal/repository"
)

// SubmissionRepository implements submission.SubmissionRepository for SQLite
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const submissionColumns = `
	s.id, s.reference, s.project_id, p.name, p.location_id, COALESCE(l.name, ''),
	s.agent_id, s.product_id, COALESCE(pr.name, ''), s.rack_id, COALESCE(rk.name, ''),
	s.previous_submission_id, s.notes, s.state, s.submission_datetime,
	s.validation_datetime, COALESCE(s.validated_by, ''),
	(SELECT COUNT(*) FROM scan_lines sl WHERE sl.submission_id = s.id),
	(SELECT COUNT(*) FROM scan_lines sl WHERE sl.submission_id = s.id AND sl.state = 'validated')
`

const submissionJoins = `
	FROM submissions s
	JOIN projects p ON p.id = s.project_id
	LEFT JOIN locations l ON l.id = p.location_id
	LEFT JOIN products pr ON pr.id = s.product_id
	LEFT JOIN racks rk ON rk.id = s.rack_id
`

func scanSubmission(row rowScanner) (*submission.Submission, error) {
	var sub submission.Submission
	var locationID, productID, rackID, previousID sql.NullInt64
	var validatedAt sql.NullTime
	err := row.Scan(
		&sub.ID,
		&sub.Reference,
		&sub.ProjectID,
		&sub.ProjectName,
		&locationID,
		&sub.LocationName,
		&sub.AgentID,
		&productID,
		&sub.ProductName,
		&rackID,
		&sub.RackName,
		&previousID,
		&sub.Notes,
		&sub.State,
		&sub.SubmissionDatetime,
		&validatedAt,
		&sub.ValidatedBy,
		&sub.ScanCount,
		&sub.ValidatedCount,
	)
	if err != nil {
		return nil, err
	}
	if locationID.Valid {
		sub.LocationID = &locationID.Int64
	}
	if productID.Valid {
		sub.ProductID = &productID.Int64
	}
	if rackID.Valid {
		sub.RackID = &rackID.Int64
	}
	if previousID.Valid {
		sub.PreviousSubmission = &previousID.Int64
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		sub.ValidationDatetime = &t
	}
	return &sub, nil
}

// CreateBatch writes a submission and all its scan lines in one transaction
// and advances them from draft to submitted before committing, so a failure
// anywhere leaves no draft behind. The generated reference, row ids and final
// states are written back to the arguments.
func (r *SubmissionRepository) CreateBatch(ctx context.Context, sub *submission.Submission, lines []*submission.ScanLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO submissions (reference, project_id, agent_id, product_id, rack_id,
			previous_submission_id, notes, state, submission_datetime)
		VALUES ('', ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.ProjectID,
		sub.AgentID,
		sub.ProductID,
		sub.RackID,
		sub.PreviousSubmission,
		sub.Notes,
		sub.State,
		sub.SubmissionDatetime,
	)
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get submission id: %w", err)
	}

	reference := fmt.Sprintf("STK/%05d", id)
	if _, err := tx.ExecContext(ctx,
		`UPDATE submissions SET reference = ? WHERE id = ?`, reference, id); err != nil {
		return fmt.Errorf("failed to set submission reference: %w", err)
	}

	for _, line := range lines {
		line.SubmissionID = id
		lineResult, err := tx.ExecContext(ctx, `
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
		lineID, err := lineResult.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get scan line id: %w", err)
		}
		line.ID = lineID
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE submissions SET state = 'submitted' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to submit submission: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE scan_lines SET state = 'submitted' WHERE submission_id = ? AND state = 'draft'`, id); err != nil {
		return fmt.Errorf("failed to submit scan lines: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	sub.ID = id
	sub.Reference = reference
	sub.State = submission.StateSubmitted
	for _, line := range lines {
		if line.State == submission.LineDraft {
			line.State = submission.LineSubmitted
		}
	}
	return nil
}

// Get retrieves a submission by ID with joined display fields
func (r *SubmissionRepository) Get(ctx context.Context, id int64) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + submissionJoins + ` WHERE s.id = ?`

	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return sub, nil
}

// Validate moves a submission and its lines to the validated state
func (r *SubmissionRepository) Validate(ctx context.Context, id int64, validatedBy string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE submissions SET state = 'validated', validation_datetime = ?, validated_by = ?
		WHERE id = ?
	`, at, validatedBy, id)
	if err != nil {
		return fmt.Errorf("failed to validate submission: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE scan_lines SET state = 'validated' WHERE submission_id = ?`, id); err != nil {
		return fmt.Errorf("failed to validate scan lines: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AppendNote appends a line to the submission's notes
func (r *SubmissionRepository) AppendNote(ctx context.Context, id int64, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE submissions
		SET notes = CASE WHEN notes = '' THEN ? ELSE notes || char(10) || ? END
		WHERE id = ?
	`, note, note, id)
	if err != nil {
		return fmt.Errorf("failed to append note: %w", err)
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

// listOrders whitelists client-supplied sort expressions
var listOrders = map[string]string{
	"":                         "s.submission_datetime DESC",
	"submission_datetime desc": "s.submission_datetime DESC",
	"submission_datetime asc":  "s.submission_datetime ASC",
	"id desc":                  "s.id DESC",
	"id asc":                   "s.id ASC",
	"validation_datetime desc": "s.validation_datetime DESC",
}

// List returns a page of an agent's submissions plus the unpaged total
func (r *SubmissionRepository) List(ctx context.Context, opts submission.ListOptions) ([]submission.Submission, int, error) {
	where := `WHERE s.agent_id = ?`
	args := []any{opts.AgentID}
	if opts.ProjectID != nil {
		where += ` AND s.project_id = ?`
		args = append(args, *opts.ProjectID)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM submissions s ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	order, ok := listOrders[opts.Order]
	if !ok {
		order = listOrders[""]
	}

	query := `SELECT ` + submissionColumns + submissionJoins + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return subs, total, nil
}

// FindValidatedByLot returns validated submissions containing the lot, most
// recently validated first. A location narrows the search to projects there.
func (r *SubmissionRepository) FindValidatedByLot(ctx context.Context, lotID int64, locationID *int64) ([]submission.Submission, error) {
	where := `
		WHERE s.state = 'validated'
		AND s.id IN (SELECT sl.submission_id FROM scan_lines sl WHERE sl.lot_id = ?)
	`
	args := []any{lotID}
	if locationID != nil {
		where += ` AND p.location_id = ?`
		args = append(args, *locationID)
	}

	query := `SELECT ` + submissionColumns + submissionJoins + where +
		` ORDER BY s.validation_datetime DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find validated submissions: %w", err)
	}
	defer rows.Close()

	var subs []submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return subs, nil
}
