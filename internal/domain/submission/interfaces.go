package submission

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
)

// ListOptions filters a submission listing.
type ListOptions struct {
	AgentID   int64
	ProjectID *int64
	Limit     int
	Offset    int
	Order     string
}

// SubmissionRepository provides submission persistence. CreateBatch is the
// one hard atomicity requirement: the submission and all its lines are
// written and advanced to submitted in a single transaction or not at all.
type SubmissionRepository interface {
	CreateBatch(ctx context.Context, sub *Submission, lines []*ScanLine) error
	Get(ctx context.Context, id int64) (*Submission, error)
	Validate(ctx context.Context, id int64, validatedBy string, at time.Time) error
	AppendNote(ctx context.Context, id int64, note string) error
	List(ctx context.Context, opts ListOptions) ([]Submission, int, error)
	FindValidatedByLot(ctx context.Context, lotID int64, locationID *int64) ([]Submission, error)
}

// ScanLineRepository provides scan line persistence.
type ScanLineRepository interface {
	Create(ctx context.Context, line *ScanLine) error
	Get(ctx context.Context, id int64) (*ScanLine, error)
	Update(ctx context.Context, line *ScanLine) error
	Delete(ctx context.Context, id int64) error
	ListBySubmission(ctx context.Context, submissionID int64, order string) ([]ScanLine, error)
	ListBySubmissionAndLot(ctx context.Context, submissionID, lotID int64) ([]ScanLine, error)
}

// LotRepository resolves lots by id or unique name.
type LotRepository interface {
	GetByID(ctx context.Context, id int64) (*stock.Lot, error)
	GetByName(ctx context.Context, name string) (*stock.Lot, error)
}

// ProjectRepository resolves the target project.
type ProjectRepository interface {
	Get(ctx context.Context, id int64) (*project.Project, error)
}

// QuantRepository reads theoretical stock for computing line deltas.
type QuantRepository interface {
	LotQuantity(ctx context.Context, productID, lotID, locationID int64) (decimal.Decimal, error)
}
