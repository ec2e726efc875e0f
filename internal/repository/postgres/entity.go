package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/entity"
)

// EntityRepo implements entity.Repository against PostgreSQL.
type EntityRepo struct{ db *sql.DB }

// NewEntityRepo creates a Postgres-backed entity repository.
func NewEntityRepo(db *sql.DB) *EntityRepo { return &EntityRepo{db: db} }

const entityColumns = `id, organization_id, property_id, category, name,
	COALESCE(contact_email,''), COALESCE(manager_email,''), template_id,
	compliance_status, requirements_met, holder_name_ok, notifications_paused,
	deleted_at, created_at, updated_at`

func scanEntity(row interface{ Scan(...interface{}) error }, e *domain.Entity) error {
	return row.Scan(
		&e.ID, &e.OrganizationID, &e.PropertyID, &e.Category, &e.Name,
		&e.ContactEmail, &e.ManagerEmail, &e.TemplateID,
		&e.ComplianceStatus, &e.RequirementsMet, &e.HolderNameOK, &e.NotificationsPaused,
		&e.DeletedAt, &e.CreatedAt, &e.UpdatedAt,
	)
}

func (r *EntityRepo) Get(ctx context.Context, orgID, id string) (*domain.Entity, error) {
	e := &domain.Entity{}
	err := scanEntity(r.db.QueryRowContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, orgID), e)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

func (r *EntityRepo) List(ctx context.Context, orgID string, f entity.ListFilter) ([]domain.Entity, error) {
	q := `SELECT ` + entityColumns + ` FROM entities WHERE organization_id = $1 AND deleted_at IS NULL`
	args := []interface{}{orgID}
	idx := 2

	if f.PropertyID != "" {
		q += fmt.Sprintf(" AND property_id = $%d", idx)
		args = append(args, f.PropertyID)
		idx++
	}
	if f.Category != "" {
		q += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.Status != "" {
		q += fmt.Sprintf(" AND compliance_status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
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

func (r *EntityRepo) Create(ctx context.Context, e *domain.Entity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entities
			(id, organization_id, property_id, category, name, contact_email,
			 manager_email, template_id, compliance_status, requirements_met,
			 holder_name_ok, notifications_paused, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`, e.ID, e.OrganizationID, e.PropertyID, e.Category, e.Name, e.ContactEmail,
		e.ManagerEmail, e.TemplateID, e.ComplianceStatus, e.RequirementsMet,
		e.HolderNameOK, e.NotificationsPaused)
	if err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

func (r *EntityRepo) Update(ctx context.Context, e *domain.Entity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET name = $3, contact_email = $4, manager_email = $5, property_id = $6,
		    updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, e.ID, e.OrganizationID, e.Name, e.ContactEmail, e.ManagerEmail, e.PropertyID)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepo) SetTemplate(ctx context.Context, orgID, id string, templateID *string) error {
	q := `
		UPDATE entities
		SET template_id = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`
	if templateID == nil {
		// Clearing the assignment ends tracking; the status reverts to
		// pending rather than advertising a stale evaluation.
		q = `
		UPDATE entities
		SET template_id = $3, compliance_status = 'pending',
		    requirements_met = FALSE, holder_name_ok = FALSE, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`
	}
	res, err := r.db.ExecContext(ctx, q, id, orgID, templateID)
	if err != nil {
		return fmt.Errorf("set template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepo) SetPaused(ctx context.Context, orgID, id string, paused bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET notifications_paused = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, orgID, paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepo) SoftDelete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entities
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, orgID)
	if err != nil {
		return fmt.Errorf("soft delete entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *EntityRepo) TemplateByID(ctx context.Context, orgID, templateID string) (*domain.RequirementTemplate, error) {
	t := &domain.RequirementTemplate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, category, is_system_default,
		       COALESCE(required_name,''), created_at, updated_at
		FROM requirement_templates
		WHERE id = $1 AND organization_id = $2
	`, templateID, orgID).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Category, &t.IsSystemDefault,
		&t.RequiredName, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}
