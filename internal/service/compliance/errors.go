package compliance

import "errors"

// Sentinel errors for the compliance service layer.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrNoCertificate    = errors.New("entity has no confirmed certificate")
	ErrNotTracked       = errors.New("entity has no template assigned")
)
