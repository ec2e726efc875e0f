package template

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
	compliancesvc "github.com/brightline/coi-tracker/internal/service/compliance"
)

// Service implements template business logic. Requirement edits run the
// cascade synchronously so callers observe up-to-date compliance state.
type Service struct {
	repo   Repository
	recalc Recalculator
}

// NewService creates a template service.
func NewService(repo Repository, recalc Recalculator) *Service {
	return &Service{repo: repo, recalc: recalc}
}

// Get returns a single template with its requirements.
func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.RequirementTemplate, error) {
	return s.repo.Get(ctx, orgID, id)
}

// List returns the organization's templates.
func (s *Service) List(ctx context.Context, orgID string) ([]domain.RequirementTemplate, error) {
	return s.repo.List(ctx, orgID)
}

// CreateInput holds the fields for creating a new template.
type CreateInput struct {
	Name         string                 `json:"name"`
	Category     domain.EntityCategory  `json:"category"`
	RequiredName string                 `json:"required_name"`
	Requirements []RequirementInput     `json:"requirements"`
}

// RequirementInput holds the fields of one coverage requirement.
type RequirementInput struct {
	CoverageType                domain.CoverageType `json:"coverage_type"`
	LimitType                   domain.LimitType    `json:"limit_type"`
	MinimumLimit                *int64              `json:"minimum_limit"`
	IsRequired                  bool                `json:"is_required"`
	RequiresAdditionalInsured   bool                `json:"requires_additional_insured"`
	RequiresWaiverOfSubrogation bool                `json:"requires_waiver_of_subrogation"`
}

// Create validates and persists a new organization template.
func (s *Service) Create(ctx context.Context, orgID string, input CreateInput) (*domain.RequirementTemplate, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if input.Category != domain.CategoryVendor && input.Category != domain.CategoryTenant {
		return nil, fmt.Errorf("category must be vendor or tenant")
	}

	t := &domain.RequirementTemplate{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           input.Name,
		Category:       input.Category,
		RequiredName:   input.RequiredName,
	}

	seen := map[string]bool{}
	for i, in := range input.Requirements {
		if !domain.ValidCoverageType(in.CoverageType) || !domain.ValidLimitType(in.LimitType) {
			return nil, ErrInvalidCoverage
		}
		key := string(in.CoverageType) + "/" + string(in.LimitType)
		if seen[key] {
			return nil, ErrDuplicateRequirement
		}
		seen[key] = true
		t.Requirements = append(t.Requirements, domain.CoverageRequirement{
			ID:                          uuid.New().String(),
			TemplateID:                  t.ID,
			CoverageType:                in.CoverageType,
			LimitType:                   in.LimitType,
			MinimumLimit:                in.MinimumLimit,
			IsRequired:                  in.IsRequired,
			RequiresAdditionalInsured:   in.RequiresAdditionalInsured,
			RequiresWaiverOfSubrogation: in.RequiresWaiverOfSubrogation,
			Position:                    i,
		})
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddRequirement appends a requirement to the template and cascades.
func (s *Service) AddRequirement(ctx context.Context, orgID, templateID string, in RequirementInput) (*domain.CoverageRequirement, error) {
	t, err := s.guardMutable(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidCoverageType(in.CoverageType) || !domain.ValidLimitType(in.LimitType) {
		return nil, ErrInvalidCoverage
	}

	r := &domain.CoverageRequirement{
		ID:                          uuid.New().String(),
		TemplateID:                  templateID,
		CoverageType:                in.CoverageType,
		LimitType:                   in.LimitType,
		MinimumLimit:                in.MinimumLimit,
		IsRequired:                  in.IsRequired,
		RequiresAdditionalInsured:   in.RequiresAdditionalInsured,
		RequiresWaiverOfSubrogation: in.RequiresWaiverOfSubrogation,
		Position:                    len(t.Requirements),
	}
	if err := s.repo.AddRequirement(ctx, r); err != nil {
		return nil, err
	}
	s.cascade(ctx, templateID)
	return r, nil
}

// UpdateRequirement edits an existing requirement and cascades.
func (s *Service) UpdateRequirement(ctx context.Context, orgID, templateID, requirementID string, in RequirementInput) error {
	if _, err := s.guardMutable(ctx, orgID, templateID); err != nil {
		return err
	}
	r := &domain.CoverageRequirement{
		ID:                          requirementID,
		TemplateID:                  templateID,
		CoverageType:                in.CoverageType,
		LimitType:                   in.LimitType,
		MinimumLimit:                in.MinimumLimit,
		IsRequired:                  in.IsRequired,
		RequiresAdditionalInsured:   in.RequiresAdditionalInsured,
		RequiresWaiverOfSubrogation: in.RequiresWaiverOfSubrogation,
	}
	if err := s.repo.UpdateRequirement(ctx, r); err != nil {
		return err
	}
	s.cascade(ctx, templateID)
	return nil
}

// RemoveRequirement deletes a requirement and cascades, which also removes
// the corresponding stored results for every bound entity.
func (s *Service) RemoveRequirement(ctx context.Context, orgID, templateID, requirementID string) error {
	if _, err := s.guardMutable(ctx, orgID, templateID); err != nil {
		return err
	}
	if err := s.repo.RemoveRequirement(ctx, templateID, requirementID); err != nil {
		return err
	}
	s.cascade(ctx, templateID)
	return nil
}

// UpdateMeta renames a template or changes its required holder name. A
// required-name change affects evaluation, so it cascades too.
func (s *Service) UpdateMeta(ctx context.Context, orgID, id, name, requiredName string) error {
	t, err := s.guardMutable(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateMeta(ctx, orgID, id, name, requiredName); err != nil {
		return err
	}
	if t.RequiredName != requiredName {
		s.cascade(ctx, id)
	}
	return nil
}

// Delete removes a template that no active entity references.
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	t, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if t.IsSystemDefault {
		return ErrSystemTemplate
	}
	return s.repo.Delete(ctx, orgID, id)
}

func (s *Service) guardMutable(ctx context.Context, orgID, id string) (*domain.RequirementTemplate, error) {
	t, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if t.IsSystemDefault {
		return nil, ErrSystemTemplate
	}
	return t, nil
}

// cascade re-evaluates bound entities. The edit itself has already been
// committed; a cascade failure leaves entities stale until the next edit
// or a manual re-trigger, so it is logged rather than returned.
func (s *Service) cascade(ctx context.Context, templateID string) {
	if s.recalc == nil {
		return
	}
	report, err := s.recalc.Recalculate(ctx, templateID)
	if err != nil {
		log.Printf("[template.Service] cascade for template %s failed: %v", templateID, err)
		return
	}
	if report.Failed > 0 {
		log.Printf("[template.Service] cascade for template %s left %d entities stale", templateID, report.Failed)
	}
}

var _ Recalculator = (*compliancesvc.Service)(nil)
