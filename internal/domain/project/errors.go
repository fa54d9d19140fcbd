package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrNotInProgress indicates the project is not accepting submissions.
	ErrNotInProgress = errors.New("project is not in progress")
)
