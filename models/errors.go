package models

import "errors"

// Failure classes shared across the training and serving code. Callers match
// them with errors.Is.
var (
	ErrDataUnavailable    = errors.New("data unavailable")
	ErrAmbiguousTimestamp = errors.New("ambiguous timestamp")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrFit                = errors.New("fit failed")
	ErrEvaluation         = errors.New("evaluation failed")
	ErrLogging            = errors.New("logging failure")
	ErrUnknownColumn      = errors.New("unknown column")
	ErrNotFitted          = errors.New("not fitted")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrNoModel            = errors.New("no model published")
	ErrCorruptArtifact    = errors.New("corrupt model artifact")
)
