package template

import "errors"

// Sentinel errors for the template service layer.
var (
	ErrNotFound             = errors.New("template not found")
	ErrRequirementNotFound  = errors.New("requirement not found")
	ErrSystemTemplate       = errors.New("system default templates are immutable")
	ErrTemplateReferenced   = errors.New("template is referenced by active entities")
	ErrDuplicateRequirement = errors.New("requirement already exists for this coverage and limit type")
	ErrInvalidCoverage      = errors.New("unknown coverage type or limit type")
)
