package submission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/stock"
)

// State represents the workflow state of a submission. Transitions only move
// forward: draft -> submitted -> validated, or out to cancelled.
type State string

const (
	StateDraft     State = "draft"
	StateSubmitted State = "submitted"
	StateValidated State = "validated"
	StateCancelled State = "cancelled"
)

// Editable reports whether a submission in this state accepts line changes.
func (s State) Editable() bool {
	return s == StateDraft || s == StateSubmitted
}

// LineState represents the workflow state of a scan line. A line's state
// never exceeds its parent submission's in the ordering
// draft < submitted < validated.
type LineState string

const (
	LineDraft     LineState = "draft"
	LineSubmitted LineState = "submitted"
	LineValidated LineState = "validated"
)

// Editable reports whether a line in this state may be updated or removed.
// Validated lines are immutable.
func (s LineState) Editable() bool {
	return s == LineDraft || s == LineSubmitted
}

// Submission is one batch count event tied to a project and agent.
type Submission struct {
	ID                  int64      `json:"id"`
	Reference           string     `json:"name"`
	ProjectID           int64      `json:"project_id"`
	ProjectName         string     `json:"project_name"`
	LocationID          *int64     `json:"location_id,omitempty"`
	LocationName        string     `json:"location_name,omitempty"`
	AgentID             int64      `json:"agent_id"`
	ProductID           *int64     `json:"product_id,omitempty"`
	ProductName         string     `json:"product_name,omitempty"`
	RackID              *int64     `json:"rack_id,omitempty"`
	RackName            string     `json:"rack_name,omitempty"`
	PreviousSubmission  *int64     `json:"previous_submission_id,omitempty"`
	Notes               string     `json:"notes"`
	State               State      `json:"state"`
	SubmissionDatetime  time.Time  `json:"submission_datetime"`
	ValidationDatetime  *time.Time `json:"validation_datetime,omitempty"`
	ValidatedBy         string     `json:"validated_by,omitempty"`
	ScanCount           int        `json:"scan_count"`
	ValidatedCount      int        `json:"validated_count"`
}

// ScanLine is one counted lot within a submission.
type ScanLine struct {
	ID             int64           `json:"id"`
	SubmissionID   int64           `json:"submission_id"`
	ProjectID      int64           `json:"project_id"`
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	LotID          int64           `json:"lot_id"`
	LotName        string          `json:"lot_name"`
	ScannedLotName string          `json:"scanned_lot_name,omitempty"`
	ScannedQty     decimal.Decimal `json:"scanned_qty"`
	TheoreticalQty decimal.Decimal `json:"theoretical_qty"`
	ChangeQty      decimal.Decimal `json:"change_qty"`
	RackID         *int64          `json:"rack_id,omitempty"`
	RackName       string          `json:"rack_name,omitempty"`
	AgentID        int64           `json:"agent_id"`
	Notes          string          `json:"notes"`
	State          LineState       `json:"state"`
}

// LotRef identifies a lot either by id or by unique name. The id form wins
// when both are set.
type LotRef struct {
	ID   int64
	Name string
}

// IsZero reports whether neither identifier is set.
func (r LotRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// LineInput is one requested scan line in a batch create or add.
type LineInput struct {
	Lot        LotRef
	ScannedQty *decimal.Decimal
	RackID     *int64
	Notes      string
}

// LineUpdate is a sparse update to an existing scan line.
type LineUpdate struct {
	ScanLineID int64
	ScannedQty *decimal.Decimal
	RackID     *int64
	Notes      *string
}

// CreateRequest describes a batch submission request.
type CreateRequest struct {
	ProjectID            int64
	RackID               *int64
	Notes                string
	Lines                []LineInput
	PreviousSubmissionID *int64
	ScannedLotName       string
}

// LineResult reports the outcome of validating or creating one line.
type LineResult struct {
	LotName     string `json:"lot_name"`
	LotID       *int64 `json:"lot_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ProductID   int64  `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	ScanID      int64  `json:"scan_id,omitempty"`
}

// CreateResult is the outcome of a successful batch create.
type CreateResult struct {
	SubmissionID                int64        `json:"submission_id"`
	Reference                   string       `json:"submission_reference"`
	Lines                       []LineResult `json:"scan_lines"`
	ValidLines                  int          `json:"valid_lines"`
	InvalidLines                int          `json:"invalid_lines"`
	IsReinventory               bool         `json:"is_reinventory,omitempty"`
	PreviousSubmissionID        *int64       `json:"previous_submission_id,omitempty"`
	PreviousSubmissionReference string       `json:"previous_submission_reference,omitempty"`
}

// ModifyRequest describes the three independent buckets of a submission edit.
type ModifyRequest struct {
	SubmissionID int64
	Add          []LineInput
	Update       []LineUpdate
	Remove       []int64
}

// UpdatedLine reports one successful line update.
type UpdatedLine struct {
	ScanLineID int64 `json:"scan_line_id"`
	Success    bool  `json:"success"`
}

// ItemError reports one failed add/update/remove item. Siblings are
// unaffected: mutation buckets allow partial success.
type ItemError struct {
	ScanLineID *int64 `json:"scan_line_id,omitempty"`
	LotName    string `json:"lot_name,omitempty"`
	LotID      *int64 `json:"lot_id,omitempty"`
	Error      string `json:"error"`
}

// ModifyResult reports per-bucket outcomes of a submission edit.
type ModifyResult struct {
	Added   []LineResult  `json:"added"`
	Updated []UpdatedLine `json:"updated"`
	Removed []int64       `json:"removed"`
	Errors  []ItemError   `json:"errors"`
}

// ListRequest describes a paginated listing of an agent's submissions.
type ListRequest struct {
	ProjectID *int64
	Limit     int
	Offset    int
	Order     string
}

// Pagination carries listing bookkeeping for the client.
type Pagination struct {
	TotalCount int  `json:"total_count"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
}

// ListResult is a page of submissions plus pagination info.
type ListResult struct {
	Submissions []Submission `json:"submissions"`
	Pagination  Pagination   `json:"pagination"`
}

// PreviousMatch is one prior validated submission containing the checked lot,
// carrying only the scan lines for that lot.
type PreviousMatch struct {
	Submission Submission `json:"submission"`
	ScanLines  []ScanLine `json:"scan_lines"`
}

// CheckPreviousResult answers "has this lot been counted before".
type CheckPreviousResult struct {
	HasPrevious bool            `json:"has_previous"`
	Lot         stock.Lot       `json:"lot_info"`
	Previous    []PreviousMatch `json:"previous_submissions"`
}
