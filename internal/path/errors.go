package path

import "errors"

var (
	// ErrEmptyRoute rejects saves with fewer than 2 coordinates.
	ErrEmptyRoute = errors.New("route needs at least 2 coordinates")
	// ErrInvalidCoordinate rejects a malformed or out-of-range start point.
	ErrInvalidCoordinate = errors.New("invalid start coordinate")
	// ErrNotFound is returned when no path exists for the given number.
	ErrNotFound = errors.New("path not found")
	// ErrUnavailable marks transient storage failures, safe to retry.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrTransaction marks a failed multi-row write; the whole path was
	// rolled back.
	ErrTransaction = errors.New("path transaction failed")
)
