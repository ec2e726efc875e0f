package certificate

import "errors"

// Sentinel errors for the certificate service layer.
var (
	ErrNotFound          = errors.New("certificate not found")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrInvalidTransition = errors.New("invalid processing status transition")
	ErrEmptyDocument     = errors.New("empty certificate document")
)
