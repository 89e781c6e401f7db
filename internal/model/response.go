package model

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	TablesLoadedAt         string `json:"tables_loaded_at,omitempty"`
}

type Benefit struct {
	Nominal float64 `json:"nominal"`
	Real    float64 `json:"real"`
}

type SimulationResult struct {
	CalculationMetadata CalculationMetadata      `json:"calculation_metadata"`
	Benefit             Benefit                  `json:"benefit"`
	RetireYear          int                      `json:"retire_year"`
	AverageBenefit      AverageBenefitComparison `json:"average_benefit"`
	ReplacementRate     ReplacementRates         `json:"replacement_rate"`
	SickLeave           SickLeaveImpact          `json:"sick_leave"`
	GoalSeek            GoalSeek                 `json:"goal_seek"`
	Scenarios           []Scenario               `json:"scenarios"`
	DelayBonusPercent   map[string]float64       `json:"delay_bonus_percent,omitempty"`
	AssumptionsUsed     AssumptionsUsed          `json:"assumptions_used"`
	Messages            []CalculationMessage     `json:"messages"`
}

// AverageBenefitComparison compares the real benefit with the average benefit
// paid in the retirement year. Value is nil when no comparison is available.
type AverageBenefitComparison struct {
	Year              int      `json:"year"`
	Value             *float64 `json:"value"`
	Source            string   `json:"source"`
	Synthetic         bool     `json:"synthetic"`
	DifferencePercent *float64 `json:"difference_percent"`
}

type ReplacementRates struct {
	WageBased        *float64 `json:"wage_based"`
	IndexedWageBased *float64 `json:"indexed_wage_based"`
	ProjectedWage    float64  `json:"projected_wage"`
}

type SickLeaveImpact struct {
	Included             bool    `json:"included"`
	AverageFactor        float64 `json:"average_factor"`
	RealWithoutSickLeave float64 `json:"real_without_sick_leave"`
	LossAbs              float64 `json:"loss_abs"`
	LossPct              float64 `json:"loss_pct"`
}

// GoalSeek reports the search for extra working years. ExtraYearsNeeded is nil
// when no year within the bound reaches the target.
type GoalSeek struct {
	Active           bool     `json:"active"`
	Target           *float64 `json:"target"`
	Shortfall        float64  `json:"shortfall"`
	Found            bool     `json:"found"`
	ExtraYearsNeeded *int     `json:"extra_years_needed"`
	LastYearChecked  int      `json:"last_year_checked,omitempty"`
	AchievedReal     *float64 `json:"achieved_real"`
}

type QuarterReference struct {
	Year    int     `json:"year"`
	Quarter int     `json:"quarter"`
	Factor  float64 `json:"factor"`
}

type AssumptionsUsed struct {
	CurrentYear        int              `json:"current_year"`
	CPI                float64          `json:"cpi"`
	CPISource          string           `json:"cpi_source"`
	WageGrowth         float64          `json:"wage_growth"`
	WageTimelineSource string           `json:"wage_timeline_source"`
	LifeMonths         int              `json:"life_months"`
	ContributionRate   float64          `json:"contribution_rate"`
	YearsToRetirement  int              `json:"years_to_retirement"`
	QuarterlyReference QuarterReference `json:"quarterly_reference"`
}

type Scenario struct {
	DelayYears             int      `json:"delay_years"`
	RetireYear             int      `json:"retire_year"`
	Benefit                Benefit  `json:"benefit"`
	ReplacementRate        *float64 `json:"replacement_rate"`
	DeltaNominal           float64  `json:"delta_nominal"`
	DeltaReal              float64  `json:"delta_real"`
	DeltaReplacementPoints *float64 `json:"delta_replacement_points"`
	AssumedBonusPercent    *float64 `json:"assumed_bonus_percent,omitempty"`
}

type WhatIfResult struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	BaselineRetireYear  int                 `json:"baseline_retire_year"`
	BaselineBenefit     Benefit             `json:"baseline_benefit"`
	Scenarios           []Scenario          `json:"scenarios"`
}

type TimelinePoint struct {
	RetireYear        int      `json:"retire_year"`
	ContributionYears int      `json:"contribution_years"`
	BenefitBase       float64  `json:"benefit_base"`
	Benefit           Benefit  `json:"benefit"`
	ReplacementRate   *float64 `json:"replacement_rate"`
}

type ErrorResponse struct {
	Status   int                  `json:"status"`
	Message  string               `json:"message"`
	Messages []CalculationMessage `json:"messages,omitempty"`
}
