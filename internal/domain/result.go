package domain

import "time"

// ResultStatus is the outcome of evaluating one coverage requirement
// against a certificate's extracted coverages.
type ResultStatus string

const (
	ResultMet         ResultStatus = "met"
	ResultNotMet      ResultStatus = "not_met"
	ResultMissing     ResultStatus = "missing"
	ResultNotRequired ResultStatus = "not_required"
)

// ComplianceResult is one requirement's evaluation against one certificate.
// The full result set for a certificate is replaced in a single transaction
// whenever it is recalculated; rows are never patched individually.
type ComplianceResult struct {
	ID            string       `json:"id" db:"id"`
	CertificateID string       `json:"certificate_id" db:"certificate_id"`
	RequirementID string       `json:"requirement_id" db:"requirement_id"`
	Status        ResultStatus `json:"status" db:"status"`
	// Gap is a human-readable description of the failing sub-conditions,
	// empty when the requirement is met.
	Gap               string    `json:"gap,omitempty" db:"gap"`
	MatchedCoverageID *string   `json:"matched_coverage_id,omitempty" db:"matched_coverage_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
