package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/brightline/coi-tracker/internal/domain"
)

// EmailLogRepo implements notify.Store against PostgreSQL. The email_log
// table is append-only; there are no UPDATE or DELETE paths.
type EmailLogRepo struct{ db *sql.DB }

// NewEmailLogRepo creates a Postgres-backed email log repository.
func NewEmailLogRepo(db *sql.DB) *EmailLogRepo { return &EmailLogRepo{db: db} }

func (r *EmailLogRepo) TrackedEntities(ctx context.Context) ([]domain.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entityColumns+`
		FROM entities
		WHERE template_id IS NOT NULL AND deleted_at IS NULL
		ORDER BY organization_id, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tracked entities: %w", err)
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

func (r *EmailLogRepo) LatestConfirmedCertificate(ctx context.Context, entityID string) (*domain.Certificate, error) {
	c := &domain.Certificate{}
	err := scanCertificate(r.db.QueryRowContext(ctx, `
		SELECT `+certColumns+`
		FROM certificates c
		WHERE c.entity_id = $1 AND c.status = $2
		ORDER BY c.confirmed_at DESC
		LIMIT 1
	`, entityID, domain.ProcessingStatusReviewConfirmed), c)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest confirmed certificate: %w", err)
	}
	return c, nil
}

func (r *EmailLogRepo) HasEntry(ctx context.Context, entityID string, kind domain.NotificationKind) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM email_log WHERE entity_id = $1 AND kind = $2
		)
	`, entityID, kind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email log: %w", err)
	}
	return exists, nil
}

func (r *EmailLogRepo) LatestChainEntry(ctx context.Context, entityID string) (*domain.EmailLogEntry, error) {
	kinds := make([]string, len(domain.ChainKinds))
	for i, k := range domain.ChainKinds {
		kinds[i] = string(k)
	}

	e := &domain.EmailLogEntry{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, entity_id, kind, follow_up_count, recipient, subject,
		       COALESCE(send_error,''), sent_at
		FROM email_log
		WHERE entity_id = $1 AND kind = ANY($2)
		ORDER BY sent_at DESC
		LIMIT 1
	`, entityID, pq.Array(kinds)).Scan(
		&e.ID, &e.EntityID, &e.Kind, &e.FollowUpCount, &e.Recipient, &e.Subject,
		&e.SendError, &e.SentAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest chain entry: %w", err)
	}
	return e, nil
}

func (r *EmailLogRepo) Append(ctx context.Context, entry *domain.EmailLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_log
			(id, entity_id, kind, follow_up_count, recipient, subject, send_error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.EntityID, entry.Kind, entry.FollowUpCount,
		entry.Recipient, entry.Subject, entry.SendError, entry.SentAt)
	if err != nil {
		return fmt.Errorf("append email log entry: %w", err)
	}
	return nil
}

// EntriesByEntity returns an entity's full notification history, newest
// first. Surfaced through the API for audit.
func (r *EmailLogRepo) EntriesByEntity(ctx context.Context, entityID string) ([]domain.EmailLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_id, kind, follow_up_count, recipient, subject,
		       COALESCE(send_error,''), sent_at
		FROM email_log
		WHERE entity_id = $1
		ORDER BY sent_at DESC
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("list email log: %w", err)
	}
	defer rows.Close()

	var out []domain.EmailLogEntry
	for rows.Next() {
		var e domain.EmailLogEntry
		if err := rows.Scan(
			&e.ID, &e.EntityID, &e.Kind, &e.FollowUpCount, &e.Recipient, &e.Subject,
			&e.SendError, &e.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan email log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
