package model

import "strings"

// SimulationRequest is the caller-supplied input of a single simulation. It is
// treated as read-only by every stage of the pipeline.
type SimulationRequest struct {
	Age                int              `json:"age"`
	Sex                string           `json:"sex"`
	GrossSalary        float64          `json:"gross_salary"`
	StartYear          int              `json:"start_year"`
	RetireYear         *int             `json:"retire_year,omitempty"`
	IncludeSickLeave   *bool            `json:"include_sick_leave,omitempty"`
	QuarterAward       int              `json:"quarter_award,omitempty"`
	Balance            *Balance         `json:"balance,omitempty"`
	CustomWageTimeline map[int]*float64 `json:"custom_wage_timeline,omitempty"`
	CustomSickDays     map[int]float64  `json:"custom_sick_days,omitempty"`
	ExpectedBenefit    *float64         `json:"expected_benefit,omitempty"`
	LocaleTag          string           `json:"locale_tag,omitempty"`
}

type Balance struct {
	Account    float64 `json:"account"`
	SubAccount float64 `json:"sub_account"`
}

const (
	SexFemale = "K"
	SexMale   = "M"

	DefaultQuarterAward = 3
)

// NormalizedSex returns the upper-cased sex code.
func (r *SimulationRequest) NormalizedSex() string {
	return strings.ToUpper(strings.TrimSpace(r.Sex))
}

// SickLeaveIncluded defaults to true when the flag is omitted.
func (r *SimulationRequest) SickLeaveIncluded() bool {
	return r.IncludeSickLeave == nil || *r.IncludeSickLeave
}

func (r *SimulationRequest) Quarter() int {
	if r.QuarterAward == 0 {
		return DefaultQuarterAward
	}
	return r.QuarterAward
}

func (r *SimulationRequest) AccountBalance() float64 {
	if r.Balance == nil {
		return 0
	}
	return r.Balance.Account
}

func (r *SimulationRequest) SubAccountBalance() float64 {
	if r.Balance == nil {
		return 0
	}
	return r.Balance.SubAccount
}

// WithRetireYear returns a shallow copy of the request retiring in year.
// Maps are shared; no stage mutates them.
func (r *SimulationRequest) WithRetireYear(year int) SimulationRequest {
	c := *r
	c.RetireYear = &year
	return c
}
