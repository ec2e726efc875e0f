package certificate

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Service runs the certificate ingestion pipeline.
type Service struct {
	repo      Repository
	files     FileStore
	extractor Extractor
	evaluator Evaluator

	extractTimeout time.Duration
	now            func() time.Time
}

// NewService constructs a certificate service. extractTimeout bounds a single
// extraction call; zero means no bound beyond the caller's context.
func NewService(repo Repository, files FileStore, extractor Extractor, evaluator Evaluator, extractTimeout time.Duration) *Service {
	return &Service{
		repo:           repo,
		files:          files,
		extractor:      extractor,
		evaluator:      evaluator,
		extractTimeout: extractTimeout,
		now:            time.Now,
	}
}

// Upload stores a certificate document for an entity, creates the tracking
// row and runs extraction synchronously. The returned certificate reflects
// the post-extraction state: extracted on success, failed otherwise. An
// extraction failure is not an Upload error; the failure is recorded on the
// certificate itself so the operator can see it and re-upload.
func (s *Service) Upload(ctx context.Context, orgID, entityID, filename string, doc []byte) (*domain.Certificate, error) {
	if len(doc) == 0 {
		return nil, ErrEmptyDocument
	}

	entity, err := s.repo.EntityByID(ctx, orgID, entityID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	certID := uuid.NewString()
	key := fmt.Sprintf("certificates/%s/%s%s", entity.ID, certID, ext)

	contentType := "application/pdf"
	if ext == ".png" {
		contentType = "image/png"
	} else if ext == ".jpg" || ext == ".jpeg" {
		contentType = "image/jpeg"
	}
	if err := s.files.Put(ctx, key, doc, contentType); err != nil {
		return nil, fmt.Errorf("storing certificate file: %w", err)
	}

	nowT := s.now()
	cert := &domain.Certificate{
		ID:               certID,
		EntityID:         entity.ID,
		FileKey:          key,
		OriginalFilename: filename,
		Status:           domain.ProcessingStatusProcessing,
		CreatedAt:        nowT,
		UpdatedAt:        nowT,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	s.runExtraction(ctx, cert, doc)

	return s.repo.Get(ctx, orgID, certID)
}

// runExtraction performs the extraction step and advances the certificate to
// extracted or failed. Errors are recorded on the row, never returned.
func (s *Service) runExtraction(ctx context.Context, cert *domain.Certificate, doc []byte) {
	extractCtx := ctx
	if s.extractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, s.extractTimeout)
		defer cancel()
	}

	facts, err := s.extractor.Extract(extractCtx, doc)
	if err != nil {
		log.Printf("[certificate.Service] extraction failed for certificate %s: %v", cert.ID, err)
		if mErr := s.repo.MarkFailed(ctx, cert.ID, err.Error()); mErr != nil {
			log.Printf("[certificate.Service] failed to mark certificate %s failed: %v", cert.ID, mErr)
		}
		return
	}

	coverages := facts.Coverages(cert.ID)
	if err := s.repo.FinishExtraction(ctx, cert.ID, facts.HolderName, coverages); err != nil {
		log.Printf("[certificate.Service] failed to store extraction for certificate %s: %v", cert.ID, err)
		if mErr := s.repo.MarkFailed(ctx, cert.ID, "storing extraction results failed"); mErr != nil {
			log.Printf("[certificate.Service] failed to mark certificate %s failed: %v", cert.ID, mErr)
		}
	}
}

// Confirm marks an extracted certificate as reviewed and triggers compliance
// evaluation for its entity. Only the extracted status can be confirmed.
func (s *Service) Confirm(ctx context.Context, orgID, certID string) (*domain.Certificate, error) {
	cert, err := s.repo.Get(ctx, orgID, certID)
	if err != nil {
		return nil, err
	}
	if !cert.Status.CanTransitionTo(domain.ProcessingStatusReviewConfirmed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cert.Status, domain.ProcessingStatusReviewConfirmed)
	}
	if err := s.repo.Confirm(ctx, certID); err != nil {
		return nil, fmt.Errorf("confirming certificate: %w", err)
	}

	entity, err := s.repo.EntityByID(ctx, orgID, cert.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.Tracked() {
		if _, err := s.evaluator.EvaluateEntity(ctx, *entity); err != nil {
			// The confirmation itself stands; evaluation will be retried
			// by the next recalculation or sweep.
			log.Printf("[certificate.Service] evaluation after confirm failed for entity %s: %v", entity.ID, err)
		}
	}

	return s.repo.Get(ctx, orgID, certID)
}

// Get returns a certificate with org scoping.
func (s *Service) Get(ctx context.Context, orgID, certID string) (*domain.Certificate, error) {
	return s.repo.Get(ctx, orgID, certID)
}

// ListByEntity returns an entity's certificates, newest first.
func (s *Service) ListByEntity(ctx context.Context, orgID, entityID string) ([]domain.Certificate, error) {
	if _, err := s.repo.EntityByID(ctx, orgID, entityID); err != nil {
		return nil, err
	}
	return s.repo.ListByEntity(ctx, orgID, entityID)
}

// Coverages returns the extracted coverage rows for a certificate.
func (s *Service) Coverages(ctx context.Context, orgID, certID string) ([]domain.ExtractedCoverage, error) {
	if _, err := s.repo.Get(ctx, orgID, certID); err != nil {
		return nil, err
	}
	return s.repo.CoveragesByCertificate(ctx, certID)
}

// Results returns the stored compliance results for a certificate.
func (s *Service) Results(ctx context.Context, orgID, certID string) ([]domain.ComplianceResult, error) {
	if _, err := s.repo.Get(ctx, orgID, certID); err != nil {
		return nil, err
	}
	return s.repo.ResultsByCertificate(ctx, certID)
}
