package entity

import (
	"context"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Repository defines the data access contract for entities.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns an active entity. Returns ErrNotFound if it doesn't
	// exist or has been soft-deleted.
	Get(ctx context.Context, orgID, id string) (*domain.Entity, error)

	// List returns the organization's active entities, optionally filtered.
	List(ctx context.Context, orgID string, f ListFilter) ([]domain.Entity, error)

	// Create inserts an entity.
	Create(ctx context.Context, e *domain.Entity) error

	// Update replaces the user-editable fields (name, contact and manager
	// email, property).
	Update(ctx context.Context, e *domain.Entity) error

	// SetTemplate assigns or clears the entity's template. A nil id clears
	// the assignment and resets the status to pending.
	SetTemplate(ctx context.Context, orgID, id string, templateID *string) error

	// SetPaused flips the notification pause flag.
	SetPaused(ctx context.Context, orgID, id string, paused bool) error

	// SoftDelete marks the entity deleted. Historical certificates and log
	// entries are retained.
	SoftDelete(ctx context.Context, orgID, id string) error

	// TemplateByID returns a template's header, without requirements, for
	// assignment validation. Returns ErrTemplateNotFound if missing.
	TemplateByID(ctx context.Context, orgID, templateID string) (*domain.RequirementTemplate, error)
}

// ListFilter narrows List results.
type ListFilter struct {
	PropertyID string
	Category   domain.EntityCategory
	Status     domain.ComplianceStatus
}

// Evaluator re-runs compliance evaluation after a template assignment.
// Satisfied by the compliance service.
type Evaluator interface {
	EvaluateEntity(ctx context.Context, entity domain.Entity) (domain.ComplianceStatus, error)
}
