package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/template"
)

// TemplateRepo implements template.Repository against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template repository.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

func (r *TemplateRepo) Get(ctx context.Context, orgID, id string) (*domain.RequirementTemplate, error) {
	t := &domain.RequirementTemplate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, category, is_system_default,
		       COALESCE(required_name,''), created_at, updated_at
		FROM requirement_templates
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Category, &t.IsSystemDefault,
		&t.RequiredName, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, template.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	reqs, err := r.requirements(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Requirements = reqs
	return t, nil
}

func (r *TemplateRepo) List(ctx context.Context, orgID string) ([]domain.RequirementTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, organization_id, name, category, is_system_default,
		       COALESCE(required_name,''), created_at, updated_at
		FROM requirement_templates
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.RequirementTemplate
	for rows.Next() {
		var t domain.RequirementTemplate
		if err := rows.Scan(
			&t.ID, &t.OrganizationID, &t.Name, &t.Category, &t.IsSystemDefault,
			&t.RequiredName, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	for i := range out {
		reqs, err := r.requirements(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Requirements = reqs
	}
	return out, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t *domain.RequirementTemplate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create template: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO requirement_templates
			(id, organization_id, name, category, is_system_default, required_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, t.ID, t.OrganizationID, t.Name, t.Category, t.IsSystemDefault, t.RequiredName)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	for i := range t.Requirements {
		if err := insertRequirement(ctx, tx, &t.Requirements[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) UpdateMeta(ctx context.Context, orgID, id, name, requiredName string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requirement_templates
		SET name = $3, required_name = $4, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`, id, orgID, name, requiredName)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}

func (r *TemplateRepo) AddRequirement(ctx context.Context, req *domain.CoverageRequirement) error {
	err := insertRequirement(ctx, r.db, req)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return template.ErrDuplicateRequirement
	}
	return err
}

func (r *TemplateRepo) UpdateRequirement(ctx context.Context, req *domain.CoverageRequirement) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coverage_requirements
		SET minimum_limit = $3, is_required = $4,
		    requires_additional_insured = $5, requires_waiver_of_subrogation = $6
		WHERE id = $1 AND template_id = $2
	`, req.ID, req.TemplateID, req.MinimumLimit, req.IsRequired,
		req.RequiresAdditionalInsured, req.RequiresWaiverOfSubrogation)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrRequirementNotFound
	}
	return nil
}

func (r *TemplateRepo) RemoveRequirement(ctx context.Context, templateID, requirementID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM coverage_requirements WHERE id = $1 AND template_id = $2
	`, requirementID, templateID)
	if err != nil {
		return fmt.Errorf("remove requirement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrRequirementNotFound
	}
	return nil
}

func (r *TemplateRepo) Delete(ctx context.Context, orgID, id string) error {
	var referenced bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM entities
			WHERE template_id = $1 AND deleted_at IS NULL
		)
	`, id).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check template references: %w", err)
	}
	if referenced {
		return template.ErrTemplateReferenced
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM requirement_templates WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}

func (r *TemplateRepo) requirements(ctx context.Context, templateID string) ([]domain.CoverageRequirement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, template_id, coverage_type, limit_type, minimum_limit,
		       is_required, requires_additional_insured, requires_waiver_of_subrogation, position
		FROM coverage_requirements
		WHERE template_id = $1
		ORDER BY position
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var out []domain.CoverageRequirement
	for rows.Next() {
		var req domain.CoverageRequirement
		if err := rows.Scan(
			&req.ID, &req.TemplateID, &req.CoverageType, &req.LimitType, &req.MinimumLimit,
			&req.IsRequired, &req.RequiresAdditionalInsured, &req.RequiresWaiverOfSubrogation, &req.Position,
		); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		out = append(out, req)
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertRequirement(ctx context.Context, ex execer, req *domain.CoverageRequirement) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO coverage_requirements
			(id, template_id, coverage_type, limit_type, minimum_limit,
			 is_required, requires_additional_insured, requires_waiver_of_subrogation, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.TemplateID, req.CoverageType, req.LimitType, req.MinimumLimit,
		req.IsRequired, req.RequiresAdditionalInsured, req.RequiresWaiverOfSubrogation, req.Position)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}
