package compliance

import (
	"context"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Repository defines the data access contract for compliance evaluation.
// Implementations must be safe for concurrent use.
type Repository interface {
	// TemplateWithRequirements returns a template and its full requirement
	// set. Returns ErrTemplateNotFound if it doesn't exist.
	TemplateWithRequirements(ctx context.Context, templateID string) (*domain.RequirementTemplate, error)

	// EntitiesByTemplate returns every active (not soft-deleted) entity
	// bound to the template.
	EntitiesByTemplate(ctx context.Context, templateID string) ([]domain.Entity, error)

	// LatestConfirmedCertificate returns the entity's most recently
	// confirmed certificate. Returns ErrNoCertificate if none exists.
	LatestConfirmedCertificate(ctx context.Context, entityID string) (*domain.Certificate, error)

	// CoveragesByCertificate returns the extracted coverage rows for a
	// certificate.
	CoveragesByCertificate(ctx context.Context, certificateID string) ([]domain.ExtractedCoverage, error)

	// ReplaceResults deletes all prior compliance results for the
	// certificate and inserts the given set, in a single transaction.
	ReplaceResults(ctx context.Context, certificateID string, results []domain.ComplianceResult) error

	// UpdateEntityEvaluation persists the outcome of an evaluation.
	UpdateEntityEvaluation(ctx context.Context, entityID string, status domain.ComplianceStatus, requirementsMet, holderNameOK bool) error

	// SetEntityStatus sets only the surfaced compliance status. Used for
	// the pending fallback when no confirmed certificate exists.
	SetEntityStatus(ctx context.Context, entityID string, status domain.ComplianceStatus) error
}

// Notifier is told when an evaluation flips an entity out of compliance so
// a notification chain can be opened. The caller only invokes it on actual
// transitions; a notification failure never fails the evaluation.
type Notifier interface {
	EntityBecameNonCompliant(ctx context.Context, entity domain.Entity, gaps []string) error
}
