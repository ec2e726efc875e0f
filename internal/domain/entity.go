package domain

import "time"

// ComplianceStatus is the status surfaced for an entity. The
// requirement-compliance boolean is kept separately on the entity so that
// "non_compliant but not yet expired" and "compliant but expiring" remain
// distinguishable.
type ComplianceStatus string

const (
	StatusPending      ComplianceStatus = "pending"
	StatusCompliant    ComplianceStatus = "compliant"
	StatusNonCompliant ComplianceStatus = "non_compliant"
	StatusExpiringSoon ComplianceStatus = "expiring_soon"
	StatusExpired      ComplianceStatus = "expired"
)

// Entity is a tracked third party (vendor or tenant) belonging to a
// property and organization. An entity with no template assigned is not
// compliance-tracked and stays pending.
type Entity struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organization_id" db:"organization_id"`
	PropertyID     string         `json:"property_id" db:"property_id"`
	Category       EntityCategory `json:"category" db:"category"`
	Name           string         `json:"name" db:"name"`
	ContactEmail   string         `json:"contact_email" db:"contact_email"`
	// ManagerEmail is the responsible property-manager account notified when
	// follow-ups are exhausted.
	ManagerEmail        string           `json:"manager_email" db:"manager_email"`
	TemplateID          *string          `json:"template_id" db:"template_id"`
	ComplianceStatus    ComplianceStatus `json:"compliance_status" db:"compliance_status"`
	RequirementsMet     bool             `json:"requirements_met" db:"requirements_met"`
	HolderNameOK        bool             `json:"holder_name_ok" db:"holder_name_ok"`
	NotificationsPaused bool             `json:"notifications_paused" db:"notifications_paused"`
	DeletedAt           *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// Tracked reports whether the entity participates in compliance evaluation.
func (e *Entity) Tracked() bool {
	return e.TemplateID != nil && *e.TemplateID != "" && e.DeletedAt == nil
}

// MoreUrgent returns the more urgent of two statuses, with expiration-driven
// states outranking the requirement-driven ones.
func MoreUrgent(a, b ComplianceStatus) ComplianceStatus {
	rank := map[ComplianceStatus]int{
		StatusPending:      0,
		StatusCompliant:    1,
		StatusExpiringSoon: 2,
		StatusNonCompliant: 3,
		StatusExpired:      4,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
