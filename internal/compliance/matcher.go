package compliance

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Evaluate compares one coverage requirement against a certificate's
// extracted coverages and returns the resulting ComplianceResult. The
// result carries a fresh ID and the certificate ID of the first coverage's
// parent is NOT assumed; callers set CertificateID.
//
// A statutory limit type is always presence-only, even when the requirement
// carries a numeric minimum: statutory limits have no number to compare.
func Evaluate(req domain.CoverageRequirement, coverages []domain.ExtractedCoverage) domain.ComplianceResult {
	result := domain.ComplianceResult{
		ID:            uuid.New().String(),
		RequirementID: req.ID,
	}

	match := findCoverage(req, coverages)
	if match == nil {
		if !req.IsRequired {
			result.Status = domain.ResultNotRequired
		} else {
			result.Status = domain.ResultMissing
			result.Gap = fmt.Sprintf("No %s coverage with %s limit found", coverageLabel(req.CoverageType), limitLabel(req.LimitType))
		}
		return result
	}
	result.CertificateID = match.CertificateID
	result.MatchedCoverageID = &match.ID

	var gaps []string

	if req.LimitType != domain.LimitStatutory && req.MinimumLimit != nil {
		switch {
		case match.LimitAmount == nil:
			gaps = append(gaps, fmt.Sprintf("No limit amount shown but requirement is %s", formatDollars(*req.MinimumLimit)))
		case *match.LimitAmount < *req.MinimumLimit:
			gaps = append(gaps, fmt.Sprintf("Limit is %s but requirement is %s", formatDollars(*match.LimitAmount), formatDollars(*req.MinimumLimit)))
		}
	}

	if req.RequiresAdditionalInsured && (match.AdditionalInsured == nil || !*match.AdditionalInsured) {
		gaps = append(gaps, "Additional Insured not listed")
	}

	if req.RequiresWaiverOfSubrogation && (match.WaiverOfSubrogation == nil || !*match.WaiverOfSubrogation) {
		gaps = append(gaps, "Waiver of Subrogation not provided")
	}

	if len(gaps) == 0 {
		result.Status = domain.ResultMet
	} else {
		result.Status = domain.ResultNotMet
		result.Gap = strings.Join(gaps, "; ")
	}
	return result
}

// EvaluateAll runs Evaluate for every requirement, stamping certID on each
// result. The output has exactly one result per requirement.
func EvaluateAll(certID string, reqs []domain.CoverageRequirement, coverages []domain.ExtractedCoverage) []domain.ComplianceResult {
	results := make([]domain.ComplianceResult, 0, len(reqs))
	for _, req := range reqs {
		r := Evaluate(req, coverages)
		r.CertificateID = certID
		results = append(results, r)
	}
	return results
}

func findCoverage(req domain.CoverageRequirement, coverages []domain.ExtractedCoverage) *domain.ExtractedCoverage {
	for i := range coverages {
		if coverages[i].CoverageType == req.CoverageType && coverages[i].LimitType == req.LimitType {
			return &coverages[i]
		}
	}
	return nil
}

// formatDollars renders a whole-dollar amount with thousands separators,
// e.g. 1000000 -> "$1,000,000".
func formatDollars(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func coverageLabel(t domain.CoverageType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func limitLabel(t domain.LimitType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
