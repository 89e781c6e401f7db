package model

// Explanation surfaces every intermediate value of one pipeline run.
type Explanation struct {
	CalculationMetadata   CalculationMetadata  `json:"calculation_metadata"`
	Request               SimulationRequest    `json:"request"`
	CurrentYear           int                  `json:"current_year"`
	RetireYear            int                  `json:"retire_year"`
	WageTimelineSource    string               `json:"wage_timeline_source"`
	WageGrowth            float64              `json:"wage_growth"`
	ContributionRate      float64              `json:"contribution_rate"`
	Years                 []ExplainYear        `json:"years"`
	AnnualIndexedTotal    float64              `json:"annual_indexed_total"`
	QuarterlyReference    QuarterReference     `json:"quarterly_reference"`
	QuarterlyIndexedTotal float64              `json:"quarterly_indexed_total"`
	AccountBalance        float64              `json:"account_balance"`
	SubAccountBalance     float64              `json:"sub_account_balance"`
	BenefitBase           float64              `json:"benefit_base"`
	LifeMonths            int                  `json:"life_months"`
	Nominal               float64              `json:"nominal"`
	CPI                   float64              `json:"cpi"`
	CPISource             string               `json:"cpi_source"`
	YearsToRetirement     int                  `json:"years_to_retirement"`
	DeflationFactor       float64              `json:"deflation_factor"`
	Real                  float64              `json:"real"`
	Messages              []CalculationMessage `json:"messages"`
}

type ExplainYear struct {
	Year              int      `json:"year"`
	Wage              float64  `json:"wage"`
	AvgWage           *float64 `json:"avg_wage"`
	MonthlyBase       float64  `json:"monthly_base"`
	AnnualBase        float64  `json:"annual_base"`
	SickDays          float64  `json:"sick_days"`
	SickLeaveFactor   float64  `json:"sick_leave_factor"`
	Contribution      float64  `json:"contribution"`
	IndexationProduct float64  `json:"indexation_product"`
	Indexed           float64  `json:"indexed"`
}
