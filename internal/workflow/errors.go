package workflow

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrMissingInput      = errors.New("missing input")
	ErrInterviewTooShort = errors.New("interview too short")
	ErrArtifactExists    = errors.New("artifact already set")
)
