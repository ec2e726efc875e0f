package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFactsFullReply(t *testing.T) {
	raw := `{
		"holder_name": "Acme Roofing LLC",
		"coverages": [
			{
				"coverage_type": "general_liability",
				"limit_type": "per_occurrence",
				"limit_amount": 1000000,
				"expiration_date": "2026-11-30",
				"additional_insured": true,
				"waiver_of_subrogation": false
			},
			{
				"coverage_type": "workers_comp",
				"limit_type": "statutory",
				"limit_amount": null,
				"expiration_date": null
			}
		]
	}`

	f, err := ParseFacts(raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme Roofing LLC", f.HolderName)
	require.Len(t, f.Coverage, 2)
	require.NotNil(t, f.Coverage[0].LimitAmount)
	assert.Equal(t, int64(1000000), *f.Coverage[0].LimitAmount)
	assert.Nil(t, f.Coverage[1].LimitAmount)
	assert.Nil(t, f.Coverage[1].AdditionalInsured)
}

func TestParseFactsStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"holder_name\": \"Beta Co\", \"coverages\": []}\n```"

	f, err := ParseFacts(raw)
	require.NoError(t, err)
	assert.Equal(t, "Beta Co", f.HolderName)
	assert.Empty(t, f.Coverage)
}

func TestParseFactsNoJSON(t *testing.T) {
	_, err := ParseFacts("I could not read the document.")
	assert.Error(t, err)
}

func TestCoveragesSkipsUnknownTypes(t *testing.T) {
	amt := int64(2000000)
	f := &Facts{
		HolderName: "Acme Roofing LLC",
		Coverage: []CoverageFact{
			{CoverageType: "General_Liability", LimitType: "Per_Occurrence", LimitAmount: &amt},
			{CoverageType: "pet_insurance", LimitType: "per_occurrence", LimitAmount: &amt},
			{CoverageType: "auto_liability", LimitType: "deductible"},
		},
	}

	rows := f.Coverages("cert-1")
	require.Len(t, rows, 1)
	assert.Equal(t, "cert-1", rows[0].CertificateID)
	assert.Equal(t, int64(2000000), *rows[0].LimitAmount)
}

func TestCoveragesCanonicalizeAliases(t *testing.T) {
	f := &Facts{
		Coverage: []CoverageFact{
			{CoverageType: "auto_liability", LimitType: "combined_single_limit"},
			{CoverageType: "Workers_Comp", LimitType: "statutory"},
			{CoverageType: "automobile_liability", LimitType: "per_accident"},
		},
	}

	rows := f.Coverages("cert-1")
	require.Len(t, rows, 3)
	assert.Equal(t, "automobile_liability", string(rows[0].CoverageType))
	assert.Equal(t, "workers_compensation", string(rows[1].CoverageType))
	assert.Equal(t, "automobile_liability", string(rows[2].CoverageType))
}

func TestCoveragesUnparseableDateIsNil(t *testing.T) {
	bad := "11/30/2026"
	good := "2026-11-30"
	f := &Facts{
		Coverage: []CoverageFact{
			{CoverageType: "general_liability", LimitType: "per_occurrence", ExpirationDate: &bad},
			{CoverageType: "auto_liability", LimitType: "combined_single_limit", ExpirationDate: &good},
		},
	}

	rows := f.Coverages("cert-1")
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].ExpirationDate)
	require.NotNil(t, rows[1].ExpirationDate)
	assert.Equal(t, "2026-11-30", rows[1].ExpirationDate.Format("2006-01-02"))
}
