package compliance

import "github.com/brightline/coi-tracker/internal/domain"

// Aggregate folds per-requirement results into the entity-level
// requirement-compliance outcome: compliant iff every result belonging to a
// requirement with IsRequired=true has status met. Expiration plays no part
// here; expiration-driven statuses are overlaid separately from the
// certificate's earliest expiration.
func Aggregate(results []domain.ComplianceResult, reqs []domain.CoverageRequirement) domain.ComplianceStatus {
	required := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		required[r.ID] = r.IsRequired
	}
	for _, res := range results {
		if !required[res.RequirementID] {
			continue
		}
		if res.Status != domain.ResultMet {
			return domain.StatusNonCompliant
		}
	}
	return domain.StatusCompliant
}
