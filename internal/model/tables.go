package model

type TableStatus struct {
	Loaded    bool   `json:"loaded"`
	Rows      int    `json:"rows"`
	MinYear   *int   `json:"min_year"`
	MaxYear   *int   `json:"max_year"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Source    string `json:"source,omitempty"`
}

type TableChange struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

type ReloadReport struct {
	LoadedAt       string        `json:"loaded_at"`
	Assumptions    TableStatus   `json:"assumptions"`
	MentorParams   TableStatus   `json:"mentor_params"`
	AverageBenefit TableStatus   `json:"average_benefit"`
	Changes        []TableChange `json:"changes"`
}

// AssumptionsView is the read-only summary of the tables in use.
type AssumptionsView struct {
	LoadedAt            string             `json:"loaded_at"`
	AnnualIndexation    map[int]float64    `json:"annual_indexation"`
	QuarterlyIndexation map[string]float64 `json:"quarterly_indexation"`
	SickLeaveDays       map[string]float64 `json:"sick_leave_days"`
	DelayScenarios      map[string]float64 `json:"delay_scenarios"`
	AverageBenefit      map[int]float64    `json:"average_benefit"`
	MentorYears         []int              `json:"mentor_years"`
	CPIDefault          float64            `json:"cpi_default"`
	WageGrowthDefault   float64            `json:"wage_growth_default"`
	LifeMonths          int                `json:"life_months"`
	ContributionRate    float64            `json:"contribution_rate"`
}
