package compliance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/compliance"
)

// memRepo is an in-memory compliance repository for unit testing.
type memRepo struct {
	mu          sync.Mutex
	templates   map[string]*domain.RequirementTemplate
	entities    map[string]*domain.Entity
	certs       map[string]*domain.Certificate // latest confirmed, keyed by entity ID
	coverages   map[string][]domain.ExtractedCoverage
	results     map[string][]domain.ComplianceResult
	failEntity  string // UpdateEntityEvaluation fails for this entity
	replaceCnt  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		templates: make(map[string]*domain.RequirementTemplate),
		entities:  make(map[string]*domain.Entity),
		certs:     make(map[string]*domain.Certificate),
		coverages: make(map[string][]domain.ExtractedCoverage),
		results:   make(map[string][]domain.ComplianceResult),
	}
}

func (m *memRepo) TemplateWithRequirements(_ context.Context, id string) (*domain.RequirementTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, compliance.ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) EntitiesByTemplate(_ context.Context, id string) ([]domain.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Entity
	for _, e := range m.entities {
		if e.TemplateID != nil && *e.TemplateID == id && e.DeletedAt == nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memRepo) LatestConfirmedCertificate(_ context.Context, entityID string) (*domain.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certs[entityID]
	if !ok {
		return nil, compliance.ErrNoCertificate
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) CoveragesByCertificate(_ context.Context, certID string) ([]domain.ExtractedCoverage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coverages[certID], nil
}

func (m *memRepo) ReplaceResults(_ context.Context, certID string, results []domain.ComplianceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[certID] = results
	m.replaceCnt++
	return nil
}

func (m *memRepo) UpdateEntityEvaluation(_ context.Context, entityID string, status domain.ComplianceStatus, met, nameOK bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entityID == m.failEntity {
		return fmt.Errorf("simulated datastore failure")
	}
	e, ok := m.entities[entityID]
	if !ok {
		return compliance.ErrEntityNotFound
	}
	e.ComplianceStatus = status
	e.RequirementsMet = met
	e.HolderNameOK = nameOK
	return nil
}

func (m *memRepo) SetEntityStatus(_ context.Context, entityID string, status domain.ComplianceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[entityID]
	if !ok {
		return compliance.ErrEntityNotFound
	}
	e.ComplianceStatus = status
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	entities []string
}

func (n *recordingNotifier) EntityBecameNonCompliant(_ context.Context, e domain.Entity, _ []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entities = append(n.entities, e.ID)
	return nil
}

func i64(v int64) *int64 { return &v }
func sp(v string) *string { return &v }

func futureDate(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

func seed(repo *memRepo) {
	repo.templates["tpl-1"] = &domain.RequirementTemplate{
		ID:             "tpl-1",
		OrganizationID: "org-1",
		Category:       domain.CategoryVendor,
		Requirements: []domain.CoverageRequirement{
			{ID: "req-gl", TemplateID: "tpl-1", CoverageType: domain.CoverageGeneralLiability, LimitType: domain.LimitPerOccurrence, MinimumLimit: i64(1000000), IsRequired: true},
			{ID: "req-auto", TemplateID: "tpl-1", CoverageType: domain.CoverageAutomobileLiability, LimitType: domain.LimitCombinedSingleLimit, MinimumLimit: i64(1000000), IsRequired: true},
		},
	}
	repo.entities["ent-1"] = &domain.Entity{
		ID: "ent-1", OrganizationID: "org-1", Name: "Acme Plumbing",
		TemplateID: sp("tpl-1"), ComplianceStatus: domain.StatusPending,
	}
	repo.certs["ent-1"] = &domain.Certificate{
		ID: "cert-1", EntityID: "ent-1", Status: domain.ProcessingStatusReviewConfirmed,
		HolderName: "Brightline Properties LLC", EarliestExpiration: futureDate(120),
	}
	repo.coverages["cert-1"] = []domain.ExtractedCoverage{
		{ID: "cov-gl", CertificateID: "cert-1", CoverageType: domain.CoverageGeneralLiability, LimitType: domain.LimitPerOccurrence, LimitAmount: i64(2000000), ExpirationDate: futureDate(120)},
	}
}

func TestRecalculateOneResultPerRequirement(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	svc := compliance.NewService(repo, nil)

	report, err := svc.Recalculate(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if report.Updated != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 1 updated, 0 failed", report)
	}

	results := repo.results["cert-1"]
	if len(results) != 2 {
		t.Fatalf("got %d results, want exactly one per requirement (2)", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.RequirementID] {
			t.Errorf("duplicate result for requirement %s", r.RequirementID)
		}
		seen[r.RequirementID] = true
	}
	// auto liability is absent from the certificate
	if repo.entities["ent-1"].ComplianceStatus != domain.StatusNonCompliant {
		t.Errorf("entity status = %s, want non_compliant", repo.entities["ent-1"].ComplianceStatus)
	}
}

func TestRecalculateNoCertificateGoesPending(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	delete(repo.certs, "ent-1")
	repo.entities["ent-1"].ComplianceStatus = domain.StatusCompliant

	svc := compliance.NewService(repo, nil)
	report, err := svc.Recalculate(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if report.Pending != 1 {
		t.Fatalf("report = %+v, want 1 pending", report)
	}
	if got := repo.entities["ent-1"].ComplianceStatus; got != domain.StatusPending {
		t.Errorf("status = %s, want pending", got)
	}
	if len(repo.results["cert-1"]) != 0 {
		t.Error("no results should be written without a confirmed certificate")
	}
}

func TestRecalculatePartialFailureIsolation(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	repo.entities["ent-2"] = &domain.Entity{ID: "ent-2", TemplateID: sp("tpl-1")}
	repo.certs["ent-2"] = &domain.Certificate{ID: "cert-2", EntityID: "ent-2", Status: domain.ProcessingStatusReviewConfirmed}
	repo.failEntity = "ent-1"

	svc := compliance.NewService(repo, nil)
	report, err := svc.Recalculate(context.Background(), "tpl-1")
	if err != nil {
		t.Fatalf("recalculate should not abort on a per-entity failure: %v", err)
	}
	if report.Failed != 1 || report.Updated != 1 {
		t.Fatalf("report = %+v, want 1 failed, 1 updated", report)
	}
}

func TestRemovedRequirementFlipsToCompliant(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	svc := compliance.NewService(repo, nil)

	// First pass: missing auto liability makes the entity non-compliant.
	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if repo.entities["ent-1"].ComplianceStatus != domain.StatusNonCompliant {
		t.Fatalf("precondition: entity should be non_compliant")
	}

	// Template edit removes the auto liability requirement.
	repo.templates["tpl-1"].Requirements = repo.templates["tpl-1"].Requirements[:1]

	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if got := repo.entities["ent-1"].ComplianceStatus; got != domain.StatusCompliant {
		t.Errorf("status after requirement removal = %s, want compliant", got)
	}
	results := repo.results["cert-1"]
	if len(results) != 1 {
		t.Errorf("stale result not removed: %d results, want 1", len(results))
	}
}

func TestHolderNameMismatchForcesNonCompliant(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	repo.templates["tpl-1"].Requirements = repo.templates["tpl-1"].Requirements[:1]
	repo.templates["tpl-1"].RequiredName = "Sunset Plaza Management"

	svc := compliance.NewService(repo, nil)
	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	e := repo.entities["ent-1"]
	if e.ComplianceStatus != domain.StatusNonCompliant {
		t.Errorf("status = %s, want non_compliant on holder name mismatch", e.ComplianceStatus)
	}
	if !e.RequirementsMet {
		t.Error("requirement compliance should stay independently true")
	}
	if e.HolderNameOK {
		t.Error("holder name flag should be false")
	}
}

func TestExpiredCertificateOverlaysStatus(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	repo.templates["tpl-1"].Requirements = repo.templates["tpl-1"].Requirements[:1]
	past := time.Now().AddDate(0, 0, -5)
	repo.certs["ent-1"].EarliestExpiration = &past

	svc := compliance.NewService(repo, nil)
	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	e := repo.entities["ent-1"]
	if e.ComplianceStatus != domain.StatusExpired {
		t.Errorf("status = %s, want expired", e.ComplianceStatus)
	}
	if !e.RequirementsMet {
		t.Error("expired-but-requirements-met must remain distinguishable")
	}
}

func TestTransitionNotifiesOnce(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	notifier := &recordingNotifier{}
	svc := compliance.NewService(repo, notifier)

	// Entity starts pending and evaluates non-compliant: one notification.
	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if len(notifier.entities) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.entities))
	}

	// A second recalculation with no status change stays quiet.
	if _, err := svc.Recalculate(context.Background(), "tpl-1"); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if len(notifier.entities) != 1 {
		t.Fatalf("re-evaluation should not re-notify, got %d", len(notifier.entities))
	}
}

func TestEvaluateEntityUntracked(t *testing.T) {
	repo := newMemRepo()
	seed(repo)
	svc := compliance.NewService(repo, nil)

	e := *repo.entities["ent-1"]
	e.TemplateID = nil
	if _, err := svc.EvaluateEntity(context.Background(), e); err != compliance.ErrNotTracked {
		t.Fatalf("expected ErrNotTracked, got %v", err)
	}
}
