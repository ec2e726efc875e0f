package domain

import "time"

// NotificationKind identifies one notification track. The three expiring
// kinds are one-shot per entity; non_compliant/expired entries also open a
// follow-up chain that follow_up entries extend.
type NotificationKind string

const (
	NotifyExpiring30        NotificationKind = "expiring_30"
	NotifyExpiring7         NotificationKind = "expiring_7"
	NotifyExpired           NotificationKind = "expired"
	NotifyNonCompliant      NotificationKind = "non_compliant"
	NotifyFollowUp          NotificationKind = "follow_up"
	NotifyManagerEscalation NotificationKind = "manager_escalation"
)

// ChainKinds are the notification kinds that participate in the follow-up
// escalation chain.
var ChainKinds = []NotificationKind{NotifyNonCompliant, NotifyExpired, NotifyFollowUp}

// EmailLogEntry is one row of the append-only notification log. The log is
// the sole source of dedup truth across scheduled runs: entries are never
// updated or deleted, and a failed transport attempt is still recorded so
// one-shot kinds are not retried forever.
type EmailLogEntry struct {
	ID            string           `json:"id" db:"id"`
	EntityID      string           `json:"entity_id" db:"entity_id"`
	Kind          NotificationKind `json:"kind" db:"kind"`
	FollowUpCount int              `json:"follow_up_count" db:"follow_up_count"`
	Recipient     string           `json:"recipient" db:"recipient"`
	Subject       string           `json:"subject" db:"subject"`
	SendError     string           `json:"send_error,omitempty" db:"send_error"`
	SentAt        time.Time        `json:"sent_at" db:"sent_at"`
}
