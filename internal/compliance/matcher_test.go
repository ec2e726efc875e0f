package compliance

import (
	"strings"
	"testing"

	"github.com/brightline/coi-tracker/internal/domain"
)

func i64(v int64) *int64 { return &v }
func bp(v bool) *bool    { return &v }

func glRequirement(min *int64) domain.CoverageRequirement {
	return domain.CoverageRequirement{
		ID:           "req-gl",
		TemplateID:   "tpl-1",
		CoverageType: domain.CoverageGeneralLiability,
		LimitType:    domain.LimitPerOccurrence,
		MinimumLimit: min,
		IsRequired:   true,
	}
}

func TestEvaluateLimitInsufficient(t *testing.T) {
	req := glRequirement(i64(1000000))
	coverages := []domain.ExtractedCoverage{{
		ID:            "cov-1",
		CertificateID: "cert-1",
		CoverageType:  domain.CoverageGeneralLiability,
		LimitType:     domain.LimitPerOccurrence,
		LimitAmount:   i64(500000),
	}}

	res := Evaluate(req, coverages)
	if res.Status != domain.ResultNotMet {
		t.Fatalf("status = %s, want not_met", res.Status)
	}
	if !strings.Contains(res.Gap, "$500,000") || !strings.Contains(res.Gap, "$1,000,000") {
		t.Errorf("gap %q should mention both amounts", res.Gap)
	}
	if res.MatchedCoverageID == nil || *res.MatchedCoverageID != "cov-1" {
		t.Errorf("matched coverage not recorded: %v", res.MatchedCoverageID)
	}
}

func TestEvaluateStatutoryPresenceOnly(t *testing.T) {
	req := domain.CoverageRequirement{
		ID:           "req-wc",
		CoverageType: domain.CoverageWorkersCompensation,
		LimitType:    domain.LimitStatutory,
		IsRequired:   true,
	}
	coverages := []domain.ExtractedCoverage{{
		ID:           "cov-wc",
		CoverageType: domain.CoverageWorkersCompensation,
		LimitType:    domain.LimitStatutory,
	}}

	if res := Evaluate(req, coverages); res.Status != domain.ResultMet {
		t.Fatalf("statutory presence should be met, got %s (%s)", res.Status, res.Gap)
	}

	// A numeric minimum on a statutory requirement stays presence-only.
	req.MinimumLimit = i64(1000000)
	if res := Evaluate(req, coverages); res.Status != domain.ResultMet {
		t.Fatalf("statutory with minimum should still be presence-only, got %s (%s)", res.Status, res.Gap)
	}
}

func TestEvaluateMissing(t *testing.T) {
	req := glRequirement(i64(1000000))
	res := Evaluate(req, nil)
	if res.Status != domain.ResultMissing {
		t.Fatalf("status = %s, want missing", res.Status)
	}
	if res.Gap == "" {
		t.Error("missing result should carry a gap description")
	}
}

func TestEvaluateNotRequired(t *testing.T) {
	req := glRequirement(i64(1000000))
	req.IsRequired = false
	res := Evaluate(req, nil)
	if res.Status != domain.ResultNotRequired {
		t.Fatalf("status = %s, want not_required", res.Status)
	}
}

func TestEvaluateLimitTypeMustMatch(t *testing.T) {
	req := glRequirement(i64(1000000))
	coverages := []domain.ExtractedCoverage{{
		ID:           "cov-agg",
		CoverageType: domain.CoverageGeneralLiability,
		LimitType:    domain.LimitAggregate,
		LimitAmount:  i64(2000000),
	}}
	if res := Evaluate(req, coverages); res.Status != domain.ResultMissing {
		t.Fatalf("aggregate coverage must not satisfy a per-occurrence requirement, got %s", res.Status)
	}
}

func TestEvaluateEndorsementGaps(t *testing.T) {
	req := glRequirement(i64(1000000))
	req.RequiresAdditionalInsured = true
	req.RequiresWaiverOfSubrogation = true

	coverages := []domain.ExtractedCoverage{{
		ID:                  "cov-1",
		CoverageType:        domain.CoverageGeneralLiability,
		LimitType:           domain.LimitPerOccurrence,
		LimitAmount:         i64(500000),
		AdditionalInsured:   bp(false),
		WaiverOfSubrogation: nil, // unknown counts as not provided
	}}

	res := Evaluate(req, coverages)
	if res.Status != domain.ResultNotMet {
		t.Fatalf("status = %s, want not_met", res.Status)
	}
	for _, want := range []string{"Limit is $500,000", "Additional Insured not listed", "Waiver of Subrogation not provided"} {
		if !strings.Contains(res.Gap, want) {
			t.Errorf("gap %q missing %q", res.Gap, want)
		}
	}
	if strings.Count(res.Gap, "; ") != 2 {
		t.Errorf("gaps should be joined by %q: %q", "; ", res.Gap)
	}
}

func TestEvaluateNoLimitAmountExtracted(t *testing.T) {
	req := glRequirement(i64(1000000))
	coverages := []domain.ExtractedCoverage{{
		ID:           "cov-1",
		CoverageType: domain.CoverageGeneralLiability,
		LimitType:    domain.LimitPerOccurrence,
	}}
	res := Evaluate(req, coverages)
	if res.Status != domain.ResultNotMet {
		t.Fatalf("status = %s, want not_met", res.Status)
	}
	if !strings.Contains(res.Gap, "$1,000,000") {
		t.Errorf("gap %q should mention the required amount", res.Gap)
	}
}

func TestEvaluateNilMinimumIsPresenceOnly(t *testing.T) {
	req := glRequirement(nil)
	coverages := []domain.ExtractedCoverage{{
		ID:           "cov-1",
		CoverageType: domain.CoverageGeneralLiability,
		LimitType:    domain.LimitPerOccurrence,
		LimitAmount:  i64(1),
	}}
	if res := Evaluate(req, coverages); res.Status != domain.ResultMet {
		t.Fatalf("nil minimum should be presence-only, got %s (%s)", res.Status, res.Gap)
	}
}

func TestEvaluateAllOneResultPerRequirement(t *testing.T) {
	reqs := []domain.CoverageRequirement{
		glRequirement(i64(1000000)),
		{ID: "req-auto", CoverageType: domain.CoverageAutomobileLiability, LimitType: domain.LimitCombinedSingleLimit, MinimumLimit: i64(1000000), IsRequired: true},
		{ID: "req-cyber", CoverageType: domain.CoverageCyber, LimitType: domain.LimitAggregate, IsRequired: false},
	}
	results := EvaluateAll("cert-9", reqs, nil)
	if len(results) != len(reqs) {
		t.Fatalf("got %d results, want %d", len(results), len(reqs))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if r.CertificateID != "cert-9" {
			t.Errorf("result %s has certificate %q", r.RequirementID, r.CertificateID)
		}
		if seen[r.RequirementID] {
			t.Errorf("duplicate result for requirement %s", r.RequirementID)
		}
		seen[r.RequirementID] = true
	}
}

func TestFormatDollars(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{500000, "$500,000"},
		{1000000, "$1,000,000"},
		{25000000, "$25,000,000"},
	}
	for _, tt := range tests {
		if got := formatDollars(tt.in); got != tt.want {
			t.Errorf("formatDollars(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
