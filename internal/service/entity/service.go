package entity

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Service manages entity lifecycle and template assignment.
type Service struct {
	repo      Repository
	evaluator Evaluator
	now       func() time.Time
}

// NewService constructs an entity service. evaluator may be nil; assignment
// then leaves the entity pending until a certificate is confirmed.
func NewService(repo Repository, evaluator Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator, now: time.Now}
}

// CreateInput carries the fields a user supplies for a new entity.
type CreateInput struct {
	OrganizationID string
	PropertyID     string
	Category       domain.EntityCategory
	Name           string
	ContactEmail   string
	ManagerEmail   string
}

// Create registers a new entity with no template assigned.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Entity, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	if in.Category != domain.CategoryVendor && in.Category != domain.CategoryTenant {
		return nil, ErrInvalidCategory
	}

	now := s.now()
	e := &domain.Entity{
		ID:               uuid.NewString(),
		OrganizationID:   in.OrganizationID,
		PropertyID:       in.PropertyID,
		Category:         in.Category,
		Name:             strings.TrimSpace(in.Name),
		ContactEmail:     strings.TrimSpace(in.ContactEmail),
		ManagerEmail:     strings.TrimSpace(in.ManagerEmail),
		ComplianceStatus: domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}
	return e, nil
}

// Get returns an active entity.
func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Entity, error) {
	return s.repo.Get(ctx, orgID, id)
}

// List returns the organization's active entities.
func (s *Service) List(ctx context.Context, orgID string, f ListFilter) ([]domain.Entity, error) {
	return s.repo.List(ctx, orgID, f)
}

// UpdateInput carries the user-editable entity fields.
type UpdateInput struct {
	Name         string
	ContactEmail string
	ManagerEmail string
	PropertyID   string
}

// Update replaces the user-editable fields.
func (s *Service) Update(ctx context.Context, orgID, id string, in UpdateInput) (*domain.Entity, error) {
	e, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) != "" {
		e.Name = strings.TrimSpace(in.Name)
	}
	if in.ContactEmail != "" {
		e.ContactEmail = strings.TrimSpace(in.ContactEmail)
	}
	if in.ManagerEmail != "" {
		e.ManagerEmail = strings.TrimSpace(in.ManagerEmail)
	}
	if in.PropertyID != "" {
		e.PropertyID = in.PropertyID
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update entity: %w", err)
	}
	return e, nil
}

// AssignTemplate binds the entity to a template and re-evaluates it against
// the template's requirements. Passing an empty templateID clears the
// assignment; the entity is then no longer tracked and returns to pending.
func (s *Service) AssignTemplate(ctx context.Context, orgID, id, templateID string) (*domain.Entity, error) {
	e, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if templateID == "" {
		if err := s.repo.SetTemplate(ctx, orgID, id, nil); err != nil {
			return nil, fmt.Errorf("clear template: %w", err)
		}
		return s.repo.Get(ctx, orgID, id)
	}

	tpl, err := s.repo.TemplateByID(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.Category != e.Category {
		return nil, ErrCategoryMismatch
	}

	if err := s.repo.SetTemplate(ctx, orgID, id, &templateID); err != nil {
		return nil, fmt.Errorf("assign template: %w", err)
	}

	e.TemplateID = &templateID
	if s.evaluator != nil {
		if _, err := s.evaluator.EvaluateEntity(ctx, *e); err != nil {
			// The assignment stands; the status stays pending until the
			// next cascade or sweep picks the entity up.
			log.Printf("[entity.Service] evaluation after assignment failed for entity %s: %v", e.ID, err)
		}
	}
	return s.repo.Get(ctx, orgID, id)
}

// SetPaused flips the notification pause flag. Paused entities are still
// evaluated; the sweep just sends nothing for them.
func (s *Service) SetPaused(ctx context.Context, orgID, id string, paused bool) (*domain.Entity, error) {
	if _, err := s.repo.Get(ctx, orgID, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetPaused(ctx, orgID, id, paused); err != nil {
		return nil, fmt.Errorf("set paused: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

// Delete soft-deletes the entity. Certificates and email log entries are
// kept for audit.
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	if _, err := s.repo.Get(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, orgID, id); err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}
