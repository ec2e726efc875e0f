package domain

import "time"

// ProcessingStatus is the lifecycle state of an uploaded certificate.
// The machine is strictly forward-only; "failed" is terminal.
type ProcessingStatus string

const (
	ProcessingStatusProcessing      ProcessingStatus = "processing"
	ProcessingStatusExtracted       ProcessingStatus = "extracted"
	ProcessingStatusReviewConfirmed ProcessingStatus = "review_confirmed"
	ProcessingStatusFailed          ProcessingStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is an allowed
// forward transition. Any non-terminal state may fail.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	if s == ProcessingStatusFailed || s == ProcessingStatusReviewConfirmed {
		return false
	}
	if next == ProcessingStatusFailed {
		return true
	}
	switch s {
	case ProcessingStatusProcessing:
		return next == ProcessingStatusExtracted
	case ProcessingStatusExtracted:
		return next == ProcessingStatusReviewConfirmed
	}
	return false
}

// Certificate is one uploaded COI document for an entity. Only a
// review_confirmed certificate participates in compliance; older
// certificates are kept as history.
type Certificate struct {
	ID               string           `json:"id" db:"id"`
	EntityID         string           `json:"entity_id" db:"entity_id"`
	FileKey          string           `json:"file_key" db:"file_key"`
	OriginalFilename string           `json:"original_filename" db:"original_filename"`
	Status           ProcessingStatus `json:"status" db:"status"`
	// HolderName is the certificate holder as extracted from the document.
	HolderName string `json:"holder_name" db:"holder_name"`
	// EarliestExpiration is the minimum expiration date across this
	// certificate's extracted coverages; nil until extraction completes or
	// when no coverage carried an expiration date.
	EarliestExpiration *time.Time `json:"earliest_expiration" db:"earliest_expiration"`
	FailureReason      string     `json:"failure_reason,omitempty" db:"failure_reason"`
	ConfirmedAt        *time.Time `json:"confirmed_at" db:"confirmed_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// ExtractedCoverage is one coverage row produced by the extraction
// collaborator for a certificate. Rows are immutable once written; a new
// certificate supersedes them wholesale.
type ExtractedCoverage struct {
	ID            string       `json:"id" db:"id"`
	CertificateID string       `json:"certificate_id" db:"certificate_id"`
	CoverageType  CoverageType `json:"coverage_type" db:"coverage_type"`
	LimitType     LimitType    `json:"limit_type" db:"limit_type"`
	// LimitAmount is in whole dollars; nil for statutory coverage or when
	// the extractor could not read an amount.
	LimitAmount         *int64     `json:"limit_amount" db:"limit_amount"`
	AdditionalInsured   *bool      `json:"additional_insured" db:"additional_insured"`
	WaiverOfSubrogation *bool      `json:"waiver_of_subrogation" db:"waiver_of_subrogation"`
	ExpirationDate      *time.Time `json:"expiration_date" db:"expiration_date"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// EarliestExpiration returns the minimum expiration across the given
// coverages, or nil if none carries a date.
func EarliestExpiration(coverages []ExtractedCoverage) *time.Time {
	var min *time.Time
	for _, c := range coverages {
		if c.ExpirationDate == nil {
			continue
		}
		if min == nil || c.ExpirationDate.Before(*min) {
			d := *c.ExpirationDate
			min = &d
		}
	}
	return min
}
