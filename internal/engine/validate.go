package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"pension-forecast/internal/model"
	"pension-forecast/internal/wages"
)

const (
	minAge = 16
	maxAge = 80

	minYear = 1900
	maxYear = 2200
)

// ValidationError carries the CRITICAL messages that stopped a calculation
// before any computation started.
type ValidationError struct {
	Messages []model.CalculationMessage
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		parts[i] = m.Code + ": " + m.Message
	}
	return "invalid simulation request: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// rule inspects a request whose retirement year has been resolved.
type rule func(req *model.SimulationRequest, retireYear int) []model.CalculationMessage

var rules = []rule{
	checkAge,
	checkSex,
	checkSalary,
	checkYearRange,
	checkQuarter,
	checkBalance,
	checkSickDays,
	checkWageTimeline,
}

// validate runs every rule and numbers the resulting messages.
func validate(req *model.SimulationRequest, retireYear int) error {
	var msgs []model.CalculationMessage
	for _, r := range rules {
		for _, m := range r(req, retireYear) {
			m.ID = len(msgs)
			m.Level = model.LevelCritical
			msgs = append(msgs, m)
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func critical(code, format string, args ...any) []model.CalculationMessage {
	return []model.CalculationMessage{{
		Level:   model.LevelCritical,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkAge(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	if req.Age < minAge || req.Age > maxAge {
		return critical(model.CodeInvalidAge, "Age %d outside %d-%d", req.Age, minAge, maxAge)
	}
	return nil
}

func checkSex(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	switch req.NormalizedSex() {
	case model.SexFemale, model.SexMale:
		return nil
	}
	return critical(model.CodeInvalidSex, "Sex must be %s or %s, got %q", model.SexFemale, model.SexMale, req.Sex)
}

func checkSalary(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	if req.GrossSalary < 0 || !finite(req.GrossSalary) {
		return critical(model.CodeInvalidSalary, "Gross salary must be a non-negative number")
	}
	return nil
}

func checkYearRange(req *model.SimulationRequest, retireYear int) []model.CalculationMessage {
	if req.StartYear < minYear || req.StartYear > maxYear {
		return critical(model.CodeInvalidYearRange, "Start year %d outside %d-%d", req.StartYear, minYear, maxYear)
	}
	if retireYear > maxYear {
		return critical(model.CodeInvalidYearRange, "Retire year %d after %d", retireYear, maxYear)
	}
	if req.StartYear >= retireYear {
		return critical(model.CodeInvalidYearRange, "Start year %d must be before retire year %d", req.StartYear, retireYear)
	}
	return nil
}

func checkQuarter(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	if req.QuarterAward < 0 || req.QuarterAward > 4 {
		return critical(model.CodeInvalidQuarter, "Quarter award must be 1-4, got %d", req.QuarterAward)
	}
	return nil
}

func checkBalance(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	if req.Balance == nil {
		return nil
	}
	b := req.Balance
	if b.Account < 0 || b.SubAccount < 0 || !finite(b.Account) || !finite(b.SubAccount) {
		return critical(model.CodeInvalidBalance, "Account balances must be non-negative numbers")
	}
	return nil
}

func checkSickDays(req *model.SimulationRequest, _ int) []model.CalculationMessage {
	var bad []int
	for y, d := range req.CustomSickDays {
		if d < 0 || d > 366 || !finite(d) {
			bad = append(bad, y)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Ints(bad)
	msgs := critical(model.CodeInvalidSickDays, "Sick-leave days must be within 0-366")
	msgs[0].Years = bad
	return msgs
}

func checkWageTimeline(req *model.SimulationRequest, retireYear int) []model.CalculationMessage {
	if len(req.CustomWageTimeline) == 0 || req.StartYear >= retireYear {
		return nil
	}
	err := wages.ValidateCustom(req.CustomWageTimeline, req.StartYear, retireYear)
	var inv *wages.InvalidTimelineError
	if !errors.As(err, &inv) {
		return nil
	}
	msgs := critical(model.CodeInvalidWageTimeline, "Custom wage timeline must cover %d-%d with positive wages", req.StartYear, retireYear-1)
	msgs[0].Years = inv.Years
	return msgs
}

func checkDelays(delays []int) error {
	var bad []int
	for _, d := range delays {
		if d < 0 || d > maxYear-minYear {
			bad = append(bad, d)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	msgs := critical(model.CodeInvalidDelays, "Delays must be non-negative, got %v", bad)
	return &ValidationError{Messages: msgs}
}
