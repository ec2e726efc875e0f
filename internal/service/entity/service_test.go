package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/brightline/coi-tracker/internal/domain"
)

type memRepo struct {
	entities  map[string]*domain.Entity
	templates map[string]*domain.RequirementTemplate
}

func newMemRepo() *memRepo {
	return &memRepo{
		entities:  make(map[string]*domain.Entity),
		templates: make(map[string]*domain.RequirementTemplate),
	}
}

func (m *memRepo) Get(_ context.Context, orgID, id string) (*domain.Entity, error) {
	e, ok := m.entities[id]
	if !ok || e.OrganizationID != orgID || e.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, orgID string, f ListFilter) ([]domain.Entity, error) {
	var out []domain.Entity
	for _, e := range m.entities {
		if e.OrganizationID != orgID || e.DeletedAt != nil {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, e *domain.Entity) error {
	cp := *e
	m.entities[e.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, e *domain.Entity) error {
	cp := *e
	m.entities[e.ID] = &cp
	return nil
}

func (m *memRepo) SetTemplate(_ context.Context, _, id string, templateID *string) error {
	e := m.entities[id]
	e.TemplateID = templateID
	if templateID == nil {
		e.ComplianceStatus = domain.StatusPending
	}
	return nil
}

func (m *memRepo) SetPaused(_ context.Context, _, id string, paused bool) error {
	m.entities[id].NotificationsPaused = paused
	return nil
}

func (m *memRepo) SoftDelete(_ context.Context, _, id string) error {
	now := m.entities[id].CreatedAt
	m.entities[id].DeletedAt = &now
	return nil
}

func (m *memRepo) TemplateByID(_ context.Context, orgID, templateID string) (*domain.RequirementTemplate, error) {
	t, ok := m.templates[templateID]
	if !ok || t.OrganizationID != orgID {
		return nil, ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

type recordingEvaluator struct {
	entityIDs []string
}

func (r *recordingEvaluator) EvaluateEntity(_ context.Context, e domain.Entity) (domain.ComplianceStatus, error) {
	r.entityIDs = append(r.entityIDs, e.ID)
	return domain.StatusCompliant, nil
}

func TestCreateAndAssignTemplate(t *testing.T) {
	repo := newMemRepo()
	repo.templates["tpl-1"] = &domain.RequirementTemplate{
		ID: "tpl-1", OrganizationID: "org-1", Category: domain.CategoryVendor,
	}
	eval := &recordingEvaluator{}
	svc := NewService(repo, eval)

	e, err := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1",
		PropertyID:     "prop-1",
		Category:       domain.CategoryVendor,
		Name:           "Acme Roofing LLC",
		ContactEmail:   "ops@acmeroofing.example",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ComplianceStatus != domain.StatusPending {
		t.Errorf("new entity status = %s, want pending", e.ComplianceStatus)
	}
	if e.Tracked() {
		t.Error("new entity should not be tracked before assignment")
	}

	assigned, err := svc.AssignTemplate(context.Background(), "org-1", e.ID, "tpl-1")
	if err != nil {
		t.Fatalf("AssignTemplate: %v", err)
	}
	if assigned.TemplateID == nil || *assigned.TemplateID != "tpl-1" {
		t.Fatalf("template id = %v, want tpl-1", assigned.TemplateID)
	}
	if len(eval.entityIDs) != 1 {
		t.Errorf("evaluations = %d, want 1", len(eval.entityIDs))
	}
}

func TestAssignTemplateCategoryMismatch(t *testing.T) {
	repo := newMemRepo()
	repo.templates["tpl-1"] = &domain.RequirementTemplate{
		ID: "tpl-1", OrganizationID: "org-1", Category: domain.CategoryTenant,
	}
	svc := NewService(repo, nil)

	e, err := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1", Category: domain.CategoryVendor, Name: "Acme",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AssignTemplate(context.Background(), "org-1", e.ID, "tpl-1"); !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("err = %v, want ErrCategoryMismatch", err)
	}
}

func TestClearTemplateResetsToPending(t *testing.T) {
	repo := newMemRepo()
	repo.templates["tpl-1"] = &domain.RequirementTemplate{
		ID: "tpl-1", OrganizationID: "org-1", Category: domain.CategoryVendor,
	}
	svc := NewService(repo, &recordingEvaluator{})

	e, _ := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1", Category: domain.CategoryVendor, Name: "Acme",
	})
	if _, err := svc.AssignTemplate(context.Background(), "org-1", e.ID, "tpl-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	repo.entities[e.ID].ComplianceStatus = domain.StatusNonCompliant

	cleared, err := svc.AssignTemplate(context.Background(), "org-1", e.ID, "")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.TemplateID != nil {
		t.Error("template id not cleared")
	}
	if cleared.ComplianceStatus != domain.StatusPending {
		t.Errorf("status = %s, want pending", cleared.ComplianceStatus)
	}
}

func TestSetPaused(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	e, _ := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1", Category: domain.CategoryVendor, Name: "Acme",
	})

	paused, err := svc.SetPaused(context.Background(), "org-1", e.ID, true)
	if err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	if !paused.NotificationsPaused {
		t.Error("pause flag not set")
	}
}

func TestDeleteHidesEntity(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	e, _ := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1", Category: domain.CategoryVendor, Name: "Acme",
	})

	if err := svc.Delete(context.Background(), "org-1", e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "org-1", e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsBadCategory(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Create(context.Background(), CreateInput{
		OrganizationID: "org-1", Category: "contractor", Name: "Acme",
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
}
