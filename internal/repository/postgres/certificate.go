package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/certificate"
)

// CertificateRepo implements certificate.Repository against PostgreSQL.
type CertificateRepo struct{ db *sql.DB }

// NewCertificateRepo creates a Postgres-backed certificate repository.
func NewCertificateRepo(db *sql.DB) *CertificateRepo { return &CertificateRepo{db: db} }

const certColumns = `c.id, c.entity_id, c.file_key, COALESCE(c.original_filename,''),
	c.status, COALESCE(c.holder_name,''), c.earliest_expiration,
	COALESCE(c.failure_reason,''), c.confirmed_at, c.created_at, c.updated_at`

func scanCertificate(row interface{ Scan(...interface{}) error }, c *domain.Certificate) error {
	return row.Scan(
		&c.ID, &c.EntityID, &c.FileKey, &c.OriginalFilename,
		&c.Status, &c.HolderName, &c.EarliestExpiration,
		&c.FailureReason, &c.ConfirmedAt, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *CertificateRepo) EntityByID(ctx context.Context, orgID, entityID string) (*domain.Entity, error) {
	e := &domain.Entity{}
	err := scanEntity(r.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, entityID, orgID), e)
	if err == sql.ErrNoRows {
		return nil, certificate.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

func (r *CertificateRepo) Create(ctx context.Context, c *domain.Certificate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO certificates
			(id, entity_id, file_key, original_filename, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, c.ID, c.EntityID, c.FileKey, c.OriginalFilename, c.Status)
	if err != nil {
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (r *CertificateRepo) Get(ctx context.Context, orgID, id string) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	err := scanCertificate(r.db.QueryRowContext(ctx, `
		SELECT `+certColumns+`
		FROM certificates c
		JOIN entities e ON e.id = c.entity_id
		WHERE c.id = $1 AND e.organization_id = $2
	`, id, orgID), c)
	if err == sql.ErrNoRows {
		return nil, certificate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return c, nil
}

func (r *CertificateRepo) ListByEntity(ctx context.Context, orgID, entityID string) ([]domain.Certificate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+certColumns+`
		FROM certificates c
		JOIN entities e ON e.id = c.entity_id
		WHERE c.entity_id = $1 AND e.organization_id = $2
		ORDER BY c.created_at DESC
	`, entityID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		if err := scanCertificate(rows, &c); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CertificateRepo) FinishExtraction(ctx context.Context, certID, holderName string, coverages []domain.ExtractedCoverage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish extraction: %w", err)
	}
	defer tx.Rollback()

	earliest := domain.EarliestExpiration(coverages)
	res, err := tx.ExecContext(ctx, `
		UPDATE certificates
		SET status = $2, holder_name = $3, earliest_expiration = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, certID, domain.ProcessingStatusExtracted, holderName, earliest, domain.ProcessingStatusProcessing)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificate.ErrInvalidTransition
	}

	for i := range coverages {
		cov := &coverages[i]
		if cov.ID == "" {
			cov.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO extracted_coverages
				(id, certificate_id, coverage_type, limit_type, limit_amount,
				 additional_insured, waiver_of_subrogation, expiration_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		`, cov.ID, certID, cov.CoverageType, cov.LimitType, cov.LimitAmount,
			cov.AdditionalInsured, cov.WaiverOfSubrogation, cov.ExpirationDate)
		if err != nil {
			return fmt.Errorf("insert coverage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish extraction: %w", err)
	}
	return nil
}

func (r *CertificateRepo) MarkFailed(ctx context.Context, certID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE certificates
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($4, $5)
	`, certID, domain.ProcessingStatusFailed, reason,
		domain.ProcessingStatusFailed, domain.ProcessingStatusReviewConfirmed)
	if err != nil {
		return fmt.Errorf("mark certificate failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificate.ErrInvalidTransition
	}
	return nil
}

func (r *CertificateRepo) Confirm(ctx context.Context, certID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE certificates
		SET status = $2, confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, certID, domain.ProcessingStatusReviewConfirmed, domain.ProcessingStatusExtracted)
	if err != nil {
		return fmt.Errorf("confirm certificate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificate.ErrInvalidTransition
	}
	return nil
}

func (r *CertificateRepo) CoveragesByCertificate(ctx context.Context, certID string) ([]domain.ExtractedCoverage, error) {
	return coveragesByCertificate(ctx, r.db, certID)
}

func (r *CertificateRepo) ResultsByCertificate(ctx context.Context, certID string) ([]domain.ComplianceResult, error) {
	return resultsByCertificate(ctx, r.db, certID)
}

func coveragesByCertificate(ctx context.Context, db *sql.DB, certID string) ([]domain.ExtractedCoverage, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, certificate_id, coverage_type, limit_type, limit_amount,
		       additional_insured, waiver_of_subrogation, expiration_date, created_at
		FROM extracted_coverages
		WHERE certificate_id = $1
		ORDER BY created_at, id
	`, certID)
	if err != nil {
		return nil, fmt.Errorf("list coverages: %w", err)
	}
	defer rows.Close()

	var out []domain.ExtractedCoverage
	for rows.Next() {
		var c domain.ExtractedCoverage
		if err := rows.Scan(
			&c.ID, &c.CertificateID, &c.CoverageType, &c.LimitType, &c.LimitAmount,
			&c.AdditionalInsured, &c.WaiverOfSubrogation, &c.ExpirationDate, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func resultsByCertificate(ctx context.Context, db *sql.DB, certID string) ([]domain.ComplianceResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, certificate_id, requirement_id, status, COALESCE(gap,''),
		       matched_coverage_id, created_at
		FROM compliance_results
		WHERE certificate_id = $1
		ORDER BY created_at, id
	`, certID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.ComplianceResult
	for rows.Next() {
		var res domain.ComplianceResult
		if err := rows.Scan(
			&res.ID, &res.CertificateID, &res.RequirementID, &res.Status, &res.Gap,
			&res.MatchedCoverageID, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}
