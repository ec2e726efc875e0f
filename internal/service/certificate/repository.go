package certificate

import (
	"context"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/extraction"
)

// Repository defines the data access contract for certificates.
// Implementations must be safe for concurrent use.
type Repository interface {
	// EntityByID returns an active entity scoped to the organization.
	EntityByID(ctx context.Context, orgID, entityID string) (*domain.Entity, error)

	// Create inserts a new certificate row in processing status.
	Create(ctx context.Context, c *domain.Certificate) error

	// Get returns a certificate scoped to the organization through its
	// entity. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, orgID, id string) (*domain.Certificate, error)

	// ListByEntity returns an entity's certificates, newest first.
	ListByEntity(ctx context.Context, orgID, entityID string) ([]domain.Certificate, error)

	// FinishExtraction stores the extracted coverage rows and moves the
	// certificate from processing to extracted in one transaction.
	FinishExtraction(ctx context.Context, certID, holderName string, coverages []domain.ExtractedCoverage) error

	// MarkFailed transitions the certificate to the terminal failed state.
	MarkFailed(ctx context.Context, certID, reason string) error

	// Confirm moves the certificate from extracted to review_confirmed.
	Confirm(ctx context.Context, certID string) error

	// CoveragesByCertificate returns the extracted coverage rows.
	CoveragesByCertificate(ctx context.Context, certID string) ([]domain.ExtractedCoverage, error)

	// ResultsByCertificate returns the stored compliance results.
	ResultsByCertificate(ctx context.Context, certID string) ([]domain.ComplianceResult, error)
}

// FileStore persists raw certificate documents. Implemented by storage.S3Store.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Extractor turns certificate bytes into structured coverage facts.
// Implemented by extraction.Client.
type Extractor interface {
	Extract(ctx context.Context, doc []byte) (*extraction.Facts, error)
}

// Evaluator re-runs compliance evaluation for an entity after its current
// certificate changes. Satisfied by the compliance service.
type Evaluator interface {
	EvaluateEntity(ctx context.Context, entity domain.Entity) (domain.ComplianceStatus, error)
}
