// Package scenario derives comparisons from repeated projection runs:
// sick-leave impact, retirement delays and the goal-seek for a target benefit.
// Every function is a pure function of its inputs.
package scenario

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"pension-forecast/internal/benefit"
	"pension-forecast/internal/model"
	"pension-forecast/internal/projection"
)

const DefaultGoalSeekMaxYears = 10

func DefaultDelays() []int {
	return []int{0, 1, 2, 5}
}

// SickLeaveImpact compares the baseline with a rerun where every sick-leave
// factor is 1.
func SickLeaveImpact(p *projection.Projector, req model.SimulationRequest, baseline *projection.Run) (model.SickLeaveImpact, error) {
	impact := model.SickLeaveImpact{
		Included:             req.SickLeaveIncluded(),
		AverageFactor:        1,
		RealWithoutSickLeave: benefit.Round2(baseline.Real),
	}
	if !impact.Included {
		return impact, nil
	}

	noSick, err := p.Run(req, baseline.RetireYear, true)
	if err != nil {
		return model.SickLeaveImpact{}, fmt.Errorf("sick leave rerun: %w", err)
	}
	withoutSick := benefit.Cents(noSick.Real)
	loss := withoutSick.Sub(benefit.Cents(baseline.Real))

	impact.AverageFactor = baseline.Ledger.AverageSickFactor()
	impact.RealWithoutSickLeave = withoutSick.InexactFloat64()
	impact.LossAbs = loss.InexactFloat64()
	if pct := benefit.PercentOf(loss, withoutSick); pct != nil {
		impact.LossPct = *pct
	}
	return impact, nil
}

// WhatIf reruns the projection for every delay. The zero-delay baseline is
// always computed and returned even when 0 is not among the delays.
func WhatIf(p *projection.Projector, req model.SimulationRequest, baseRetire int, delays []int, bonus map[string]float64) (*projection.Run, []model.Scenario, error) {
	baseline, err := p.Run(req, baseRetire, false)
	if err != nil {
		return nil, nil, err
	}
	baseRate := benefit.ReplacementRate(baseline.Real, req.GrossSalary)

	scenarios := make([]model.Scenario, 0, len(delays))
	for _, d := range normalizeDelays(delays) {
		run := baseline
		if d != 0 {
			run, err = p.Run(Extend(req, baseRetire, baseRetire+d), baseRetire+d, false)
			if err != nil {
				return nil, nil, fmt.Errorf("delay %d: %w", d, err)
			}
		}
		s := model.Scenario{
			DelayYears: d,
			RetireYear: run.RetireYear,
			Benefit: model.Benefit{
				Nominal: benefit.Round2(run.Nominal),
				Real:    benefit.Round2(run.Real),
			},
			ReplacementRate: benefit.ReplacementRate(run.Real, req.GrossSalary),
			DeltaNominal:    benefit.Cents(run.Nominal).Sub(benefit.Cents(baseline.Nominal)).InexactFloat64(),
			DeltaReal:       benefit.Cents(run.Real).Sub(benefit.Cents(baseline.Real)).InexactFloat64(),
		}
		if s.ReplacementRate != nil && baseRate != nil {
			pts := decimal.NewFromFloat(*s.ReplacementRate).Sub(decimal.NewFromFloat(*baseRate)).InexactFloat64()
			s.DeltaReplacementPoints = &pts
		}
		if b, ok := bonus[fmt.Sprintf("+%d", d)]; ok {
			s.AssumedBonusPercent = &b
		}
		scenarios = append(scenarios, s)
	}
	return baseline, scenarios, nil
}

// GoalSeek searches for the smallest number of extra working years, up to
// maxYears, whose real benefit reaches the expected benefit.
func GoalSeek(p *projection.Projector, req model.SimulationRequest, baseline *projection.Run, maxYears int) (model.GoalSeek, error) {
	if req.ExpectedBenefit == nil || *req.ExpectedBenefit <= 0 {
		return model.GoalSeek{}, nil
	}
	target := benefit.Cents(*req.ExpectedBenefit)
	t := target.InexactFloat64()
	gs := model.GoalSeek{
		Active:    true,
		Target:    &t,
		Shortfall: target.Sub(benefit.Cents(baseline.Real)).InexactFloat64(),
	}

	baseRetire := baseline.RetireYear
	for extra := 0; extra <= maxYears; extra++ {
		run := baseline
		if extra > 0 {
			var err error
			run, err = p.Run(Extend(req, baseRetire, baseRetire+extra), baseRetire+extra, false)
			if err != nil {
				return model.GoalSeek{}, fmt.Errorf("goal seek year %d: %w", baseRetire+extra, err)
			}
		}
		achieved := benefit.Cents(run.Real)
		a := achieved.InexactFloat64()
		gs.LastYearChecked = run.RetireYear
		gs.AchievedReal = &a
		if achieved.GreaterThanOrEqual(target) {
			n := extra
			gs.Found = true
			gs.ExtraYearsNeeded = &n
			return gs, nil
		}
	}
	return gs, nil
}

// Extend returns req retiring in newRetire. A custom wage timeline is carried
// past the original retirement year by repeating its last wage.
func Extend(req model.SimulationRequest, baseRetire, newRetire int) model.SimulationRequest {
	out := req.WithRetireYear(newRetire)
	if len(req.CustomWageTimeline) == 0 || newRetire <= baseRetire {
		return out
	}
	var last *float64
	for y := baseRetire - 1; y >= req.StartYear; y-- {
		if w := req.CustomWageTimeline[y]; w != nil {
			last = w
			break
		}
	}
	if last == nil {
		return out
	}
	custom := make(map[int]*float64, len(req.CustomWageTimeline)+newRetire-baseRetire)
	for y, w := range req.CustomWageTimeline {
		custom[y] = w
	}
	for y := baseRetire; y < newRetire; y++ {
		if w := custom[y]; w == nil {
			custom[y] = last
		}
	}
	out.CustomWageTimeline = custom
	return out
}

// normalizeDelays sorts and de-duplicates delays.
func normalizeDelays(delays []int) []int {
	if len(delays) == 0 {
		return DefaultDelays()
	}
	out := append([]int(nil), delays...)
	sort.Ints(out)
	n := 0
	for i, d := range out {
		if i > 0 && d == out[n-1] {
			continue
		}
		out[n] = d
		n++
	}
	return out[:n]
}
