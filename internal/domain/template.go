package domain

import "time"

// EntityCategory distinguishes the two kinds of tracked third parties.
type EntityCategory string

const (
	CategoryVendor EntityCategory = "vendor"
	CategoryTenant EntityCategory = "tenant"
)

// RequirementTemplate is a named set of coverage requirements that entities
// are held against. System default templates are immutable; organization
// templates may be edited, which triggers a cascade recalculation of every
// bound entity.
type RequirementTemplate struct {
	ID              string         `json:"id" db:"id"`
	OrganizationID  string         `json:"organization_id" db:"organization_id"`
	Name            string         `json:"name" db:"name"`
	Category        EntityCategory `json:"category" db:"category"`
	IsSystemDefault bool           `json:"is_system_default" db:"is_system_default"`
	// RequiredName, when set, must appear (after normalization) within the
	// certificate holder name extracted from each certificate.
	RequiredName string                `json:"required_name" db:"required_name"`
	Requirements []CoverageRequirement `json:"requirements,omitempty"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at" db:"updated_at"`
}

// CoverageRequirement is one rule within a template. At most one requirement
// may exist per (template, coverage type, limit type) pair.
type CoverageRequirement struct {
	ID           string       `json:"id" db:"id"`
	TemplateID   string       `json:"template_id" db:"template_id"`
	CoverageType CoverageType `json:"coverage_type" db:"coverage_type"`
	LimitType    LimitType    `json:"limit_type" db:"limit_type"`
	// MinimumLimit is in whole dollars. Nil together with a statutory limit
	// type means the coverage only has to be present.
	MinimumLimit                *int64 `json:"minimum_limit" db:"minimum_limit"`
	IsRequired                  bool   `json:"is_required" db:"is_required"`
	RequiresAdditionalInsured   bool   `json:"requires_additional_insured" db:"requires_additional_insured"`
	RequiresWaiverOfSubrogation bool   `json:"requires_waiver_of_subrogation" db:"requires_waiver_of_subrogation"`
	Position                    int    `json:"position" db:"position"`
}
