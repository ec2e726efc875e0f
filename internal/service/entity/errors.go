package entity

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidCategory  = errors.New("invalid entity category")
	ErrCategoryMismatch = errors.New("template category does not match entity")
)
