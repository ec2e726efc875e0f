package template

import (
	"context"

	"github.com/brightline/coi-tracker/internal/domain"
	compliancesvc "github.com/brightline/coi-tracker/internal/service/compliance"
)

// Repository defines the data access contract for templates.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a template with its requirement set, ordered by position.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, orgID, id string) (*domain.RequirementTemplate, error)

	// List returns the organization's templates (requirements included).
	List(ctx context.Context, orgID string) ([]domain.RequirementTemplate, error)

	// Create inserts a template together with its initial requirements.
	Create(ctx context.Context, t *domain.RequirementTemplate) error

	// UpdateMeta updates template name and required holder name.
	UpdateMeta(ctx context.Context, orgID, id, name, requiredName string) error

	// AddRequirement inserts one requirement row. Returns
	// ErrDuplicateRequirement when the (coverage type, limit type) pair is
	// already present on the template.
	AddRequirement(ctx context.Context, r *domain.CoverageRequirement) error

	// UpdateRequirement replaces the mutable fields of a requirement.
	UpdateRequirement(ctx context.Context, r *domain.CoverageRequirement) error

	// RemoveRequirement deletes one requirement row.
	RemoveRequirement(ctx context.Context, templateID, requirementID string) error

	// Delete removes a template. Returns ErrTemplateReferenced when any
	// active entity still points at it.
	Delete(ctx context.Context, orgID, id string) error
}

// Recalculator re-evaluates every entity bound to a template. Satisfied by
// the compliance service.
type Recalculator interface {
	Recalculate(ctx context.Context, templateID string) (compliancesvc.RecalcReport, error)
}
