package submission

import "errors"

var (
	// ErrSubmissionNotFound indicates the submission doesn't exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrScanLineNotFound indicates the scan line doesn't belong to the submission.
	ErrScanLineNotFound = errors.New("scan line not found in this submission")
	// ErrNotOwner indicates the acting agent does not own the submission.
	ErrNotOwner = errors.New("you can only access your own submissions")
	// ErrInvalidState indicates the submission is past its editable window.
	ErrInvalidState = errors.New("only draft or submitted submissions can be modified")
	// ErrNotSubmitted indicates the strict editor requires the submitted state.
	ErrNotSubmitted = errors.New("only submissions in 'submitted' state can be modified with this endpoint")
	// ErrNotValidated indicates a re-inventory source must be validated.
	ErrNotValidated = errors.New("can only use validated submissions for re-inventory")
	// ErrLineNotEditable indicates the scan line is past its editable window.
	ErrLineNotEditable = errors.New("only draft or submitted scan lines can be modified")
	// ErrLineNotSubmitted indicates the strict editor requires lines in submitted state.
	ErrLineNotSubmitted = errors.New("only scan lines in 'submitted' state can be modified")
	// ErrEmptyBatch indicates a batch create with no scan lines.
	ErrEmptyBatch = errors.New("project ID and scan lines are required")
	// ErrMissingFields indicates a line without a lot identifier or quantity.
	ErrMissingFields = errors.New("lot information and scanned quantity are required")
	// ErrInvalidTransition indicates a backward or skipped state transition.
	ErrInvalidTransition = errors.New("invalid submission state transition")
)

// BatchError aggregates per-line validation results when a batch create is
// rejected wholesale. Nothing is persisted when it is returned.
type BatchError struct {
	Lines []LineResult
}

func (e *BatchError) Error() string {
	return "all scan lines must be valid to create a submission"
}
