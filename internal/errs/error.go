package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrOutOfStock      = errors.New("no available copies")
	ErrAlreadyReturned = errors.New("loan already returned")
	ErrInvalidDate     = errors.New("invalid date")
	ErrConstraint      = errors.New("constraint violation")
)
