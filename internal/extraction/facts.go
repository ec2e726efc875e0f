package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightline/coi-tracker/internal/domain"
)

// Facts is the structured output of a certificate extraction.
type Facts struct {
	HolderName string         `json:"holder_name"`
	Coverage   []CoverageFact `json:"coverages"`
}

// CoverageFact is one coverage line as read off the certificate. Every field
// except the type pair is optional: the model reports what it can see.
type CoverageFact struct {
	CoverageType        string  `json:"coverage_type"`
	LimitType           string  `json:"limit_type"`
	LimitAmount         *int64  `json:"limit_amount"`
	ExpirationDate      *string `json:"expiration_date"`
	AdditionalInsured   *bool   `json:"additional_insured"`
	WaiverOfSubrogation *bool   `json:"waiver_of_subrogation"`
}

// ParseFacts decodes the model's JSON reply. The reply may be wrapped in a
// markdown code fence; anything outside the outermost JSON object is ignored.
func ParseFacts(raw string) (*Facts, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var f Facts
	if err := json.Unmarshal([]byte(raw[start:end+1]), &f); err != nil {
		return nil, fmt.Errorf("parsing extraction reply: %w", err)
	}
	return &f, nil
}

// Shorthand the model tends to use despite the prompt, mapped to the
// canonical type names.
var coverageAliases = map[string]domain.CoverageType{
	"auto_liability": domain.CoverageAutomobileLiability,
	"auto":           domain.CoverageAutomobileLiability,
	"workers_comp":   domain.CoverageWorkersCompensation,
}

// Coverages converts the facts into coverage rows for a certificate,
// skipping lines whose type pair is not one we track. Dates the model
// could not read stay nil.
func (f *Facts) Coverages(certID string) []domain.ExtractedCoverage {
	out := make([]domain.ExtractedCoverage, 0, len(f.Coverage))
	for _, c := range f.Coverage {
		ct := domain.CoverageType(strings.TrimSpace(strings.ToLower(c.CoverageType)))
		if canonical, ok := coverageAliases[string(ct)]; ok {
			ct = canonical
		}
		lt := domain.LimitType(strings.TrimSpace(strings.ToLower(c.LimitType)))
		if !domain.ValidCoverageType(ct) || !domain.ValidLimitType(lt) {
			continue
		}
		out = append(out, domain.ExtractedCoverage{
			ID:                  uuid.NewString(),
			CertificateID:       certID,
			CoverageType:        ct,
			LimitType:           lt,
			LimitAmount:         c.LimitAmount,
			AdditionalInsured:   c.AdditionalInsured,
			WaiverOfSubrogation: c.WaiverOfSubrogation,
			ExpirationDate:      parseDate(c.ExpirationDate),
		})
	}
	return out
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}
