package compliance

import (
	"testing"

	"github.com/brightline/coi-tracker/internal/domain"
)

func TestAggregate(t *testing.T) {
	reqs := []domain.CoverageRequirement{
		{ID: "r1", IsRequired: true},
		{ID: "r2", IsRequired: true},
		{ID: "r3", IsRequired: false},
	}

	tests := []struct {
		name    string
		results []domain.ComplianceResult
		want    domain.ComplianceStatus
	}{
		{
			"all required met",
			[]domain.ComplianceResult{
				{RequirementID: "r1", Status: domain.ResultMet},
				{RequirementID: "r2", Status: domain.ResultMet},
				{RequirementID: "r3", Status: domain.ResultNotMet},
			},
			domain.StatusCompliant,
		},
		{
			"one required missing",
			[]domain.ComplianceResult{
				{RequirementID: "r1", Status: domain.ResultMet},
				{RequirementID: "r2", Status: domain.ResultMissing},
			},
			domain.StatusNonCompliant,
		},
		{
			"one required not met",
			[]domain.ComplianceResult{
				{RequirementID: "r1", Status: domain.ResultNotMet},
				{RequirementID: "r2", Status: domain.ResultMet},
			},
			domain.StatusNonCompliant,
		},
		{
			"optional failures ignored",
			[]domain.ComplianceResult{
				{RequirementID: "r3", Status: domain.ResultNotMet},
			},
			domain.StatusCompliant,
		},
		{
			"no results",
			nil,
			domain.StatusCompliant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.results, reqs); got != tt.want {
				t.Errorf("Aggregate() = %s, want %s", got, tt.want)
			}
		})
	}
}
