package compliance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/brightline/coi-tracker/internal/compliance"
	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/expiration"
)

// Service implements compliance evaluation and cascade recalculation.
type Service struct {
	repo     Repository
	notifier Notifier // optional
	now      func() time.Time
}

// NewService creates a compliance service backed by the given repository.
// notifier may be nil when no notification chain should be opened (tests,
// one-off recalculations from the CLI).
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// RecalcReport summarizes one cascade sweep. Failed entities keep their
// stale results until the next template edit or a manual re-trigger.
type RecalcReport struct {
	TemplateID string `json:"template_id"`
	Entities   int    `json:"entities"`
	Updated    int    `json:"updated"`
	Pending    int    `json:"pending"`
	Failed     int    `json:"failed"`
}

// Recalculate re-evaluates every active entity bound to the template
// against its current (post-edit) requirement set. A failure on one entity
// never prevents processing of the rest; the report counts failures.
func (s *Service) Recalculate(ctx context.Context, templateID string) (RecalcReport, error) {
	report := RecalcReport{TemplateID: templateID}

	tpl, err := s.repo.TemplateWithRequirements(ctx, templateID)
	if err != nil {
		return report, fmt.Errorf("load template: %w", err)
	}

	entities, err := s.repo.EntitiesByTemplate(ctx, templateID)
	if err != nil {
		return report, fmt.Errorf("list entities: %w", err)
	}
	report.Entities = len(entities)

	for _, entity := range entities {
		outcome, err := s.evaluate(ctx, entity, tpl)
		switch {
		case err != nil:
			report.Failed++
			log.Printf("[compliance.Service] recalculate template %s: entity %s: %v", templateID, entity.ID, err)
		case outcome == domain.StatusPending:
			report.Pending++
		default:
			report.Updated++
		}
	}

	log.Printf("[compliance.Service] Template %s recalculated: %d entities, %d updated, %d pending, %d failed",
		templateID, report.Entities, report.Updated, report.Pending, report.Failed)
	return report, nil
}

// EvaluateEntity evaluates a single entity against its assigned template.
// Used when a certificate is confirmed and when an entity is (re)assigned
// a template.
func (s *Service) EvaluateEntity(ctx context.Context, entity domain.Entity) (domain.ComplianceStatus, error) {
	if !entity.Tracked() {
		return "", ErrNotTracked
	}
	tpl, err := s.repo.TemplateWithRequirements(ctx, *entity.TemplateID)
	if err != nil {
		return "", fmt.Errorf("load template: %w", err)
	}
	return s.evaluate(ctx, entity, tpl)
}

// evaluate runs the matcher and aggregator for one entity and persists the
// outcome. With no confirmed certificate the entity is set to pending and
// no results are written.
func (s *Service) evaluate(ctx context.Context, entity domain.Entity, tpl *domain.RequirementTemplate) (domain.ComplianceStatus, error) {
	cert, err := s.repo.LatestConfirmedCertificate(ctx, entity.ID)
	if errors.Is(err, ErrNoCertificate) {
		if err := s.repo.SetEntityStatus(ctx, entity.ID, domain.StatusPending); err != nil {
			return "", fmt.Errorf("set pending: %w", err)
		}
		return domain.StatusPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("load certificate: %w", err)
	}

	coverages, err := s.repo.CoveragesByCertificate(ctx, cert.ID)
	if err != nil {
		return "", fmt.Errorf("load coverages: %w", err)
	}

	results := compliance.EvaluateAll(cert.ID, tpl.Requirements, coverages)
	if err := s.repo.ReplaceResults(ctx, cert.ID, results); err != nil {
		return "", fmt.Errorf("replace results: %w", err)
	}

	base := compliance.Aggregate(results, tpl.Requirements)
	requirementsMet := base == domain.StatusCompliant
	holderNameOK := compliance.NameSatisfies(tpl.RequiredName, cert.HolderName)
	if !holderNameOK {
		base = domain.StatusNonCompliant
	}

	status := base
	if cert.EarliestExpiration != nil {
		switch expiration.Classify(*cert.EarliestExpiration, s.now()) {
		case expiration.BucketExpired:
			status = domain.MoreUrgent(status, domain.StatusExpired)
		case expiration.BucketDue7, expiration.BucketDue30:
			status = domain.MoreUrgent(status, domain.StatusExpiringSoon)
		}
	}

	if err := s.repo.UpdateEntityEvaluation(ctx, entity.ID, status, requirementsMet, holderNameOK); err != nil {
		return "", fmt.Errorf("update entity: %w", err)
	}

	// Open a notification chain only on an actual transition into
	// non-compliance; repeated evaluations with the same outcome stay quiet.
	if s.notifier != nil && base == domain.StatusNonCompliant && entity.ComplianceStatus != domain.StatusNonCompliant && entity.ComplianceStatus != domain.StatusExpired {
		if err := s.notifier.EntityBecameNonCompliant(ctx, entity, gapsOf(results)); err != nil {
			log.Printf("[compliance.Service] non-compliance notification for entity %s failed: %v", entity.ID, err)
		}
	}

	return status, nil
}

func gapsOf(results []domain.ComplianceResult) []string {
	var gaps []string
	for _, r := range results {
		if r.Gap != "" && r.Status != domain.ResultNotRequired {
			gaps = append(gaps, r.Gap)
		}
	}
	return gaps
}
