package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/compliance"
)

// ComplianceRepo implements compliance.Repository against PostgreSQL.
type ComplianceRepo struct{ db *sql.DB }

// NewComplianceRepo creates a Postgres-backed compliance repository.
func NewComplianceRepo(db *sql.DB) *ComplianceRepo { return &ComplianceRepo{db: db} }

func (r *ComplianceRepo) TemplateWithRequirements(ctx context.Context, templateID string) (*domain.RequirementTemplate, error) {
	t := &domain.RequirementTemplate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, category, is_system_default,
		       COALESCE(required_name,''), created_at, updated_at
		FROM requirement_templates
		WHERE id = $1
	`, templateID).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Category, &t.IsSystemDefault,
		&t.RequiredName, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, compliance.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

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

	for rows.Next() {
		var req domain.CoverageRequirement
		if err := rows.Scan(
			&req.ID, &req.TemplateID, &req.CoverageType, &req.LimitType, &req.MinimumLimit,
			&req.IsRequired, &req.RequiresAdditionalInsured, &req.RequiresWaiverOfSubrogation, &req.Position,
		); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		t.Requirements = append(t.Requirements, req)
	}
	return t, nil
}

func (r *ComplianceRepo) EntitiesByTemplate(ctx context.Context, templateID string) ([]domain.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE template_id = $1 AND deleted_at IS NULL
		ORDER BY name
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list entities by template: %w", err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := scanEntity(rows, &e); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *ComplianceRepo) LatestConfirmedCertificate(ctx context.Context, entityID string) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	err := scanCertificate(r.db.QueryRowContext(ctx, `
		SELECT `+certColumns+`
		FROM certificates c
		WHERE c.entity_id = $1 AND c.status = $2
		ORDER BY c.confirmed_at DESC
		LIMIT 1
	`, entityID, domain.ProcessingStatusReviewConfirmed), c)
	if err == sql.ErrNoRows {
		return nil, compliance.ErrNoCertificate
	}
	if err != nil {
		return nil, fmt.Errorf("get latest confirmed certificate: %w", err)
	}
	return c, nil
}

func (r *ComplianceRepo) CoveragesByCertificate(ctx context.Context, certificateID string) ([]domain.ExtractedCoverage, error) {
	return coveragesByCertificate(ctx, r.db, certificateID)
}

// ReplaceResults swaps the certificate's full result set in one transaction
// so a reader never observes a partially recalculated state.
func (r *ComplianceRepo) ReplaceResults(ctx context.Context, certificateID string, results []domain.ComplianceResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace results: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM compliance_results WHERE certificate_id = $1
	`, certificateID); err != nil {
		return fmt.Errorf("delete prior results: %w", err)
	}

	for _, res := range results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO compliance_results
				(id, certificate_id, requirement_id, status, gap, matched_coverage_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, res.ID, certificateID, res.RequirementID, res.Status, res.Gap, res.MatchedCoverageID)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace results: %w", err)
	}
	return nil
}

func (r *ComplianceRepo) UpdateEntityEvaluation(ctx context.Context, entityID string, status domain.ComplianceStatus, requirementsMet, holderNameOK bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET compliance_status = $2, requirements_met = $3, holder_name_ok = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, entityID, status, requirementsMet, holderNameOK)
	if err != nil {
		return fmt.Errorf("update entity evaluation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return compliance.ErrEntityNotFound
	}
	return nil
}

func (r *ComplianceRepo) SetEntityStatus(ctx context.Context, entityID string, status domain.ComplianceStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET compliance_status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, entityID, status)
	if err != nil {
		return fmt.Errorf("set entity status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return compliance.ErrEntityNotFound
	}
	return nil
}
