package sessions

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotReady     = errors.New("final resume not ready")
	ErrConflict     = errors.New("session changed concurrently")
)
