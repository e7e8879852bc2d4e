package domain

import "errors"

// Error kinds shared by the engine and every storage backend. Callers match
// them with errors.Is; backends wrap them with operation context.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
