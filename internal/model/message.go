package model

type CalculationMessage struct {
	ID      int    `json:"id"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Years   []int  `json:"years,omitempty"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

// Validation codes.
const (
	CodeInvalidYearRange    = "INVALID_YEAR_RANGE"
	CodeInvalidWageTimeline = "INVALID_WAGE_TIMELINE"
	CodeInvalidQuarter      = "INVALID_QUARTER"
	CodeInvalidSex          = "INVALID_SEX"
	CodeInvalidAge          = "INVALID_AGE"
	CodeInvalidSalary       = "INVALID_SALARY"
	CodeInvalidBalance      = "INVALID_BALANCE"
	CodeInvalidSickDays     = "INVALID_SICK_DAYS"
	CodeInvalidDelays       = "INVALID_DELAYS"
)

// Degraded-data codes.
const (
	CodeCPIFallback                = "CPI_FALLBACK"
	CodeWagePathFlatRate           = "WAGE_PATH_FLAT_RATE"
	CodeAverageBenefitUnavailable  = "AVERAGE_BENEFIT_UNAVAILABLE"
	CodeAverageBenefitSynthetic    = "AVERAGE_BENEFIT_SYNTHETIC"
	CodeAverageBenefitExtrapolated = "AVERAGE_BENEFIT_EXTRAPOLATED"
	CodeIndexationFactorMissing    = "INDEXATION_FACTOR_MISSING"
)
