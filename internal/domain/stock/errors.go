package stock

import "errors"

var (
	// ErrLotNotFound indicates the lot doesn't exist.
	ErrLotNotFound = errors.New("lot not found")
	// ErrLocationNotFound indicates the location doesn't exist.
	ErrLocationNotFound = errors.New("location not found")
)
