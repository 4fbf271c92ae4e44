package engine

import (
	"errors"

	"github.com/danieljhkim/reorg/internal/status"
)

var (
	// ErrValidation indicates the selection or destination was rejected.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a handle or history record was not found.
	ErrNotFound = errors.New("not found")

	// ErrCancelled indicates the user declined a confirmation.
	ErrCancelled = status.ErrCancelled
)
