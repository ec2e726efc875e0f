package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/expiration"
	"github.com/brightline/coi-tracker/internal/pkg/logger"
)

// Store is the email-log and entity state the engine reads and appends to.
// Methods returning a pointer return (nil, nil) when no row exists.
type Store interface {
	// TrackedEntities returns every active entity with a template assigned.
	TrackedEntities(ctx context.Context) ([]domain.Entity, error)

	// LatestConfirmedCertificate returns the entity's most recently
	// confirmed certificate, or nil when it has none.
	LatestConfirmedCertificate(ctx context.Context, entityID string) (*domain.Certificate, error)

	// HasEntry reports whether any log entry of the given kind exists for
	// the entity. One-shot kinds consult this before sending.
	HasEntry(ctx context.Context, entityID string, kind domain.NotificationKind) (bool, error)

	// LatestChainEntry returns the entity's most recent follow-up-eligible
	// log entry (kinds non_compliant, expired, follow_up), or nil.
	LatestChainEntry(ctx context.Context, entityID string) (*domain.EmailLogEntry, error)

	// Append inserts a log entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *domain.EmailLogEntry) error
}

// Sender delivers one HTML email. Implemented by ses.Sender.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// StatusRefresher re-evaluates an entity so the sweep works from current
// compliance state rather than whatever was stored at the last evaluation.
// Satisfied by the compliance service.
type StatusRefresher interface {
	EvaluateEntity(ctx context.Context, entity domain.Entity) (domain.ComplianceStatus, error)
}

// Config tunes the escalation behavior.
type Config struct {
	// FollowUpInterval is the minimum spacing between chain entries.
	FollowUpInterval time.Duration
	// MaxFollowUps ends the chain; reaching it triggers the manager
	// escalation.
	MaxFollowUps int
	// FromName appears in email bodies.
	FromName string
}

func (c *Config) applyDefaults() {
	if c.FollowUpInterval <= 0 {
		c.FollowUpInterval = 7 * 24 * time.Hour
	}
	if c.MaxFollowUps <= 0 {
		c.MaxFollowUps = 4
	}
	if c.FromName == "" {
		c.FromName = "Compliance Team"
	}
}

// RunReport summarizes one sweep. The sweep never aborts on a single
// entity's failure; failures are counted and logged.
type RunReport struct {
	Entities int `json:"entities"`
	Sent     int `json:"sent"`
	Paused   int `json:"paused"`
	Failed   int `json:"failed"`
}

// Engine runs the daily notification sweep and handles non-compliance
// transitions pushed by the compliance service.
type Engine struct {
	store     Store
	sender    Sender
	refresher StatusRefresher
	renderer  *Renderer
	cfg       Config
	now       func() time.Time
}

// NewEngine builds an engine. refresher may be nil, in which case the sweep
// trusts stored entity statuses.
func NewEngine(store Store, sender Sender, refresher StatusRefresher, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		store:     store,
		sender:    sender,
		refresher: refresher,
		renderer:  NewRenderer(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetStatusRefresher installs the refresher after construction. The
// compliance service and the engine reference each other, so one of them
// has to be wired late.
func (e *Engine) SetStatusRefresher(r StatusRefresher) { e.refresher = r }

// Run performs one sweep over every tracked entity: expiration one-shots
// first, then the follow-up chain. Safe to invoke repeatedly; duplicate or
// delayed invocations are absorbed by the log.
func (e *Engine) Run(ctx context.Context) (RunReport, error) {
	entities, err := e.store.TrackedEntities(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("load tracked entities: %w", err)
	}

	report := RunReport{Entities: len(entities)}
	for _, entity := range entities {
		if entity.NotificationsPaused {
			report.Paused++
			continue
		}
		sent, err := e.sweepEntity(ctx, entity)
		report.Sent += sent
		if err != nil {
			report.Failed++
			log.Printf("[notify.Engine] sweep failed for entity %s: %v", entity.ID, err)
		}
	}

	log.Printf("[notify.Engine] sweep done: %d entities, %d sent, %d paused, %d failed",
		report.Entities, report.Sent, report.Paused, report.Failed)
	return report, nil
}

func (e *Engine) sweepEntity(ctx context.Context, entity domain.Entity) (sent int, err error) {
	status := entity.ComplianceStatus
	if e.refresher != nil {
		fresh, err := e.refresher.EvaluateEntity(ctx, entity)
		if err != nil {
			return 0, fmt.Errorf("refresh status: %w", err)
		}
		status = fresh
	}

	cert, err := e.store.LatestConfirmedCertificate(ctx, entity.ID)
	if err != nil {
		return 0, fmt.Errorf("load certificate: %w", err)
	}

	if cert != nil && cert.EarliestExpiration != nil {
		n, err := e.sendOneShot(ctx, entity, cert)
		sent += n
		if err != nil {
			return sent, err
		}
		if n == 0 {
			n, err = e.reopenOnRelapse(ctx, entity, cert, status)
			sent += n
			if err != nil {
				return sent, err
			}
		}
	}

	n, err := e.followUp(ctx, entity, status)
	sent += n
	return sent, err
}

// sendOneShot emits at most one expiration notification for the entity's
// current bucket. Each kind fires once per entity, ever; the log decides.
func (e *Engine) sendOneShot(ctx context.Context, entity domain.Entity, cert *domain.Certificate) (int, error) {
	bucket := expiration.Classify(*cert.EarliestExpiration, e.now())

	var kind domain.NotificationKind
	switch bucket {
	case expiration.BucketDue30:
		kind = domain.NotifyExpiring30
	case expiration.BucketDue7:
		kind = domain.NotifyExpiring7
	case expiration.BucketExpired:
		kind = domain.NotifyExpired
	default:
		return 0, nil
	}

	already, err := e.store.HasEntry(ctx, entity.ID, kind)
	if err != nil {
		return 0, fmt.Errorf("dedup check for %s: %w", kind, err)
	}
	if already {
		return 0, nil
	}

	bindings := e.bindings(entity)
	bindings["expiration_date"] = *cert.EarliestExpiration
	bindings["days_until"] = expiration.DaysUntil(*cert.EarliestExpiration, e.now())

	return 1, e.deliver(ctx, entity.ID, kind, 0, entity.ContactEmail, bindings)
}

// reopenOnRelapse starts a fresh escalation chain when an entity that was
// cured has expired again. The expired one-shot fires only once per entity,
// so a relapse has to write its own chain-opening entry; the fresh entry
// resets the follow-up count instead of resuming the stale chain.
func (e *Engine) reopenOnRelapse(ctx context.Context, entity domain.Entity, cert *domain.Certificate, status domain.ComplianceStatus) (int, error) {
	if status != domain.StatusExpired {
		return 0, nil
	}
	if entity.ComplianceStatus == domain.StatusExpired || entity.ComplianceStatus == domain.StatusNonCompliant {
		return 0, nil
	}
	if expiration.Classify(*cert.EarliestExpiration, e.now()) != expiration.BucketExpired {
		return 0, nil
	}

	// A chain entry younger than the follow-up interval means the chain
	// was already (re)opened, e.g. by the non-compliance hook during this
	// sweep's status refresh.
	latest, err := e.store.LatestChainEntry(ctx, entity.ID)
	if err != nil {
		return 0, fmt.Errorf("load chain entry: %w", err)
	}
	if latest != nil && e.now().Sub(latest.SentAt) < e.cfg.FollowUpInterval {
		return 0, nil
	}

	bindings := e.bindings(entity)
	bindings["expiration_date"] = *cert.EarliestExpiration
	bindings["days_until"] = expiration.DaysUntil(*cert.EarliestExpiration, e.now())
	return 1, e.deliver(ctx, entity.ID, domain.NotifyExpired, 0, entity.ContactEmail, bindings)
}

// followUp extends an open escalation chain when its latest entry is old
// enough and the entity is still out of compliance.
func (e *Engine) followUp(ctx context.Context, entity domain.Entity, status domain.ComplianceStatus) (int, error) {
	latest, err := e.store.LatestChainEntry(ctx, entity.ID)
	if err != nil {
		return 0, fmt.Errorf("load chain entry: %w", err)
	}
	if latest == nil || latest.FollowUpCount >= e.cfg.MaxFollowUps {
		return 0, nil
	}
	if e.now().Sub(latest.SentAt) < e.cfg.FollowUpInterval {
		return 0, nil
	}

	// The chain ends silently when compliance was cured since the last
	// entry. A later relapse starts a new chain through a fresh
	// non_compliant or expired entry.
	if status != domain.StatusNonCompliant && status != domain.StatusExpired {
		return 0, nil
	}

	count := latest.FollowUpCount + 1
	bindings := e.bindings(entity)
	bindings["follow_up_count"] = count

	sent := 0
	if err := e.deliver(ctx, entity.ID, domain.NotifyFollowUp, count, entity.ContactEmail, bindings); err != nil {
		return sent, err
	}
	sent++

	if count == e.cfg.MaxFollowUps && entity.ManagerEmail != "" {
		if err := e.deliver(ctx, entity.ID, domain.NotifyManagerEscalation, count, entity.ManagerEmail, bindings); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// EntityBecameNonCompliant opens a new escalation chain for an entity that
// just transitioned into non-compliance. Implements the compliance
// service's notifier hook.
func (e *Engine) EntityBecameNonCompliant(ctx context.Context, entity domain.Entity, gaps []string) error {
	if entity.NotificationsPaused {
		return nil
	}
	bindings := e.bindings(entity)
	bindings["gaps"] = gaps
	return e.deliver(ctx, entity.ID, domain.NotifyNonCompliant, 0, entity.ContactEmail, bindings)
}

// deliver renders, sends with one bounded retry, and appends the log entry.
// A transport failure is recorded on the entry rather than returned, so the
// attempt still counts for dedup and the sweep moves on.
func (e *Engine) deliver(ctx context.Context, entityID string, kind domain.NotificationKind, count int, recipient string, bindings map[string]interface{}) error {
	subject, html, err := e.renderer.Render(kind, bindings)
	if err != nil {
		return err
	}

	sendErr := e.sender.Send(ctx, recipient, subject, html)
	if sendErr != nil {
		logger.Warn("notification send failed, retrying once",
			"kind", string(kind), "entity_id", entityID, "recipient", recipient, "error", sendErr.Error())
		sendErr = e.sender.Send(ctx, recipient, subject, html)
	}

	entry := &domain.EmailLogEntry{
		ID:            uuid.NewString(),
		EntityID:      entityID,
		Kind:          kind,
		FollowUpCount: count,
		Recipient:     recipient,
		Subject:       subject,
		SentAt:        e.now(),
	}
	if sendErr != nil {
		entry.SendError = sendErr.Error()
		logger.Error("notification send failed after retry, logging as attempted",
			"kind", string(kind), "entity_id", entityID, "recipient", recipient, "error", sendErr.Error())
	}

	if err := e.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func (e *Engine) bindings(entity domain.Entity) map[string]interface{} {
	return map[string]interface{}{
		"entity_name":    entity.Name,
		"contact_email":  entity.ContactEmail,
		"from_name":      e.cfg.FromName,
		"max_follow_ups": e.cfg.MaxFollowUps,
	}
}
