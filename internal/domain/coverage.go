package domain

// CoverageType is a category of insurance named on a certificate.
type CoverageType string

const (
	CoverageGeneralLiability      CoverageType = "general_liability"
	CoverageAutomobileLiability   CoverageType = "automobile_liability"
	CoverageWorkersCompensation   CoverageType = "workers_compensation"
	CoverageUmbrella              CoverageType = "umbrella"
	CoverageProfessionalLiability CoverageType = "professional_liability"
	CoverageProperty              CoverageType = "property"
	CoveragePollutionLiability    CoverageType = "pollution_liability"
	CoverageLiquorLiability       CoverageType = "liquor_liability"
	CoverageCyber                 CoverageType = "cyber"
)

// LimitType describes how a coverage's dollar limit is structured.
type LimitType string

const (
	LimitPerOccurrence       LimitType = "per_occurrence"
	LimitAggregate           LimitType = "aggregate"
	LimitCombinedSingleLimit LimitType = "combined_single_limit"
	LimitStatutory           LimitType = "statutory"
	LimitPerPerson           LimitType = "per_person"
	LimitPerAccident         LimitType = "per_accident"
)

var coverageTypes = map[CoverageType]bool{
	CoverageGeneralLiability:      true,
	CoverageAutomobileLiability:   true,
	CoverageWorkersCompensation:   true,
	CoverageUmbrella:              true,
	CoverageProfessionalLiability: true,
	CoverageProperty:              true,
	CoveragePollutionLiability:    true,
	CoverageLiquorLiability:       true,
	CoverageCyber:                 true,
}

var limitTypes = map[LimitType]bool{
	LimitPerOccurrence:       true,
	LimitAggregate:           true,
	LimitCombinedSingleLimit: true,
	LimitStatutory:           true,
	LimitPerPerson:           true,
	LimitPerAccident:         true,
}

// ValidCoverageType reports whether t is a known coverage type.
func ValidCoverageType(t CoverageType) bool { return coverageTypes[t] }

// ValidLimitType reports whether t is a known limit type.
func ValidLimitType(t LimitType) bool { return limitTypes[t] }
