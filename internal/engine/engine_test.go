package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"pension-forecast/internal/model"
	"pension-forecast/internal/tables"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// referenceEngine serves a snapshot with only sick-leave averages, so every
// other input falls back: flat wages, unit indexation and default CPI.
func referenceEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	snap := tables.Empty()
	snap.Assumptions.SickLeaveDays["K"] = 36.5
	snap.Assumptions.SickLeaveDays["M"] = 18.25
	snap.Assumptions.DelayScenarios["+5"] = 42
	snap.LoadedAt = fixedNow.Add(-time.Hour)

	cfg := DefaultConfig()
	cfg.Projection.Rates.WageGrowthDefault = 0
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(cfg, tables.NewStaticStore(snap), nil, opts...)
}

func referenceRequest() *model.SimulationRequest {
	retire := 2065
	return &model.SimulationRequest{
		Age:          28,
		Sex:          "K",
		GrossSalary:  8500,
		StartYear:    2020,
		RetireYear:   &retire,
		QuarterAward: 3,
	}
}

func hasCode(msgs []model.CalculationMessage, code string) bool {
	for _, m := range msgs {
		if m.Code == code {
			return true
		}
	}
	return false
}

func TestSimulateReferenceFixture(t *testing.T) {
	e := referenceEngine(t)
	res, err := e.Simulate(referenceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Benefit.Nominal != 3359.88 {
		t.Fatalf("expected nominal 3359.88, got %v", res.Benefit.Nominal)
	}
	if res.Benefit.Real != 1029.99 {
		t.Fatalf("expected real 1029.99, got %v", res.Benefit.Real)
	}
	if res.RetireYear != 2065 {
		t.Fatalf("expected retire year 2065, got %d", res.RetireYear)
	}

	rr := res.ReplacementRate.WageBased
	if rr == nil {
		t.Fatal("expected wage based replacement rate")
	}
	if math.Abs(*rr-100*res.Benefit.Real/8500) > 0.01 {
		t.Fatalf("expected replacement rate %.2f, got %v", 100*res.Benefit.Real/8500, *rr)
	}

	au := res.AssumptionsUsed
	if au.CurrentYear != 2025 || au.YearsToRetirement != 40 {
		t.Fatalf("expected current year 2025 and 40 years, got %d and %d", au.CurrentYear, au.YearsToRetirement)
	}
	if au.CPISource != "fallback" || au.CPI != 0.03 {
		t.Fatalf("expected fallback cpi 0.03, got %v (%s)", au.CPI, au.CPISource)
	}
	if au.WageTimelineSource != "flat_rate" {
		t.Fatalf("expected flat_rate wages, got %s", au.WageTimelineSource)
	}
	if au.QuarterlyReference.Year != 2065 || au.QuarterlyReference.Quarter != 1 {
		t.Fatalf("expected reference quarter 2065Q1, got %+v", au.QuarterlyReference)
	}

	if !res.SickLeave.Included {
		t.Fatal("expected sick leave to be included by default")
	}
	if math.Abs(res.SickLeave.AverageFactor-0.9) > 1e-12 {
		t.Fatalf("expected sick leave factor 0.9, got %v", res.SickLeave.AverageFactor)
	}
	if res.SickLeave.RealWithoutSickLeave != 1144.44 {
		t.Fatalf("expected real without sick leave 1144.44, got %v", res.SickLeave.RealWithoutSickLeave)
	}
	if res.SickLeave.LossAbs != 114.45 {
		t.Fatalf("expected loss 114.45, got %v", res.SickLeave.LossAbs)
	}
	if res.SickLeave.LossPct != 10 {
		t.Fatalf("expected loss pct 10, got %v", res.SickLeave.LossPct)
	}

	if res.GoalSeek.Active {
		t.Fatal("expected goal seek to be inactive without expected benefit")
	}
	if len(res.Scenarios) != 4 {
		t.Fatalf("expected 4 default scenarios, got %d", len(res.Scenarios))
	}
	if res.AverageBenefit.Value != nil || res.AverageBenefit.Source != "unavailable" {
		t.Fatalf("expected unavailable average benefit, got %+v", res.AverageBenefit)
	}

	for _, code := range []string{
		model.CodeCPIFallback,
		model.CodeWagePathFlatRate,
		model.CodeIndexationFactorMissing,
		model.CodeAverageBenefitUnavailable,
	} {
		if !hasCode(res.Messages, code) {
			t.Fatalf("expected warning %s in %+v", code, res.Messages)
		}
	}
	for i, m := range res.Messages {
		if m.ID != i || m.Level != model.LevelWarning {
			t.Fatalf("unexpected message %d: %+v", i, m)
		}
	}

	md := res.CalculationMetadata
	if md.CalculationID == "" {
		t.Fatal("expected calculation id")
	}
	if md.CalculationStartedAt != "2025-06-01T12:00:00Z" || md.CalculationDurationMs != 0 {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if md.TablesLoadedAt != "2025-06-01T11:00:00Z" {
		t.Fatalf("expected tables_loaded_at, got %q", md.TablesLoadedAt)
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	e := referenceEngine(t)
	a, err := e.Simulate(referenceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Simulate(referenceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Benefit != b.Benefit || a.SickLeave != b.SickLeave {
		t.Fatalf("expected identical results, got %+v and %+v", a.Benefit, b.Benefit)
	}
	if a.CalculationMetadata.CalculationID == b.CalculationMetadata.CalculationID {
		t.Fatal("expected distinct calculation ids")
	}
}

func TestSimulateExcludedSickLeave(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	excluded := false
	req.IncludeSickLeave = &excluded

	res, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Benefit.Real != 1144.44 {
		t.Fatalf("expected real 1144.44 without sick leave, got %v", res.Benefit.Real)
	}
	if res.SickLeave.Included || res.SickLeave.LossAbs != 0 || res.SickLeave.LossPct != 0 {
		t.Fatalf("expected zero sick leave impact, got %+v", res.SickLeave)
	}
}

func TestSimulateDefaultRetireYear(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	req.RetireYear = nil

	res, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RetireYear != 2025+32 {
		t.Fatalf("expected default retire year 2057, got %d", res.RetireYear)
	}
}

func TestSimulateGoalSeekAtBaseline(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	target := 1029.99
	req.ExpectedBenefit = &target

	res, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gs := res.GoalSeek
	if !gs.Active || !gs.Found || gs.ExtraYearsNeeded == nil || *gs.ExtraYearsNeeded != 0 {
		t.Fatalf("expected zero extra years, got %+v", gs)
	}
}

func TestSimulateGoalSeekExhausted(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	target := 5000.0
	req.ExpectedBenefit = &target

	res, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gs := res.GoalSeek
	if gs.Found || gs.ExtraYearsNeeded != nil {
		t.Fatalf("expected goal seek to fail, got %+v", gs)
	}
	if gs.LastYearChecked != 2075 {
		t.Fatalf("expected last year checked 2075, got %d", gs.LastYearChecked)
	}
	if math.Abs(gs.Shortfall-(5000-1029.99)) > 1e-9 {
		t.Fatalf("expected shortfall 3970.01, got %v", gs.Shortfall)
	}
}

func TestSimulateGoalSeekZeroWindowChecksBaselineOnly(t *testing.T) {
	snap := tables.Empty()
	snap.Assumptions.SickLeaveDays["K"] = 36.5
	snap.Assumptions.DelayScenarios["+5"] = 42
	snap.LoadedAt = fixedNow.Add(-time.Hour)
	cfg := DefaultConfig()
	cfg.Projection.Rates.WageGrowthDefault = 0
	cfg.GoalSeekMaxYears = 0
	e := New(cfg, tables.NewStaticStore(snap), nil, WithClock(func() time.Time { return fixedNow }))

	req := referenceRequest()
	target := 5000.0
	req.ExpectedBenefit = &target

	res, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gs := res.GoalSeek
	if gs.Found {
		t.Fatalf("expected goal seek to fail, got %+v", gs)
	}
	if gs.LastYearChecked != 2065 {
		t.Fatalf("expected only the baseline year 2065 checked, got %d", gs.LastYearChecked)
	}
	if gs.AchievedReal == nil || math.Abs(*gs.AchievedReal-1029.99) > 1e-9 {
		t.Fatalf("expected achieved real 1029.99, got %v", gs.AchievedReal)
	}
}

func TestSimulateValidation(t *testing.T) {
	e := referenceEngine(t)
	cases := []struct {
		name   string
		mutate func(r *model.SimulationRequest)
		code   string
	}{
		{"retire before start", func(r *model.SimulationRequest) { y := 2019; r.RetireYear = &y }, model.CodeInvalidYearRange},
		{"bad sex", func(r *model.SimulationRequest) { r.Sex = "X" }, model.CodeInvalidSex},
		{"bad quarter", func(r *model.SimulationRequest) { r.QuarterAward = 5 }, model.CodeInvalidQuarter},
		{"too young", func(r *model.SimulationRequest) { r.Age = 12 }, model.CodeInvalidAge},
		{"negative salary", func(r *model.SimulationRequest) { r.GrossSalary = -1 }, model.CodeInvalidSalary},
		{"nan salary", func(r *model.SimulationRequest) { r.GrossSalary = math.NaN() }, model.CodeInvalidSalary},
		{"negative balance", func(r *model.SimulationRequest) { r.Balance = &model.Balance{Account: -5} }, model.CodeInvalidBalance},
		{"sick days", func(r *model.SimulationRequest) { r.CustomSickDays = map[int]float64{2030: 400} }, model.CodeInvalidSickDays},
		{"wage gap", func(r *model.SimulationRequest) {
			w := 5000.0
			r.CustomWageTimeline = map[int]*float64{2020: &w}
		}, model.CodeInvalidWageTimeline},
	}
	for _, c := range cases {
		req := referenceRequest()
		c.mutate(req)
		_, err := e.Simulate(req)
		ve, ok := IsValidation(err)
		if !ok {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
		if !hasCode(ve.Messages, c.code) {
			t.Fatalf("%s: expected %s, got %+v", c.name, c.code, ve.Messages)
		}
		if ve.Messages[0].Level != model.LevelCritical {
			t.Fatalf("%s: expected CRITICAL level, got %s", c.name, ve.Messages[0].Level)
		}
	}
}

func TestSimulateWageTimelineErrorListsYears(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	retire := 2024
	req.RetireYear = &retire
	w := 5000.0
	req.CustomWageTimeline = map[int]*float64{2020: &w, 2021: nil, 2023: &w}

	_, err := e.Simulate(req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	years := ve.Messages[0].Years
	if len(years) != 2 || years[0] != 2021 || years[1] != 2022 {
		t.Fatalf("expected years [2021 2022], got %v", years)
	}
}

func TestExplainMatchesSimulate(t *testing.T) {
	e := referenceEngine(t)
	ex, err := e.Explain(referenceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ex.Years) != 45 {
		t.Fatalf("expected 45 contribution years, got %d", len(ex.Years))
	}
	first := ex.Years[0]
	if first.Year != 2020 || first.Wage != 8500 || first.Contribution != 17919.36 {
		t.Fatalf("unexpected first year %+v", first)
	}
	if ex.Nominal != 3359.88 || ex.Real != 1029.99 {
		t.Fatalf("expected 3359.88/1029.99, got %v/%v", ex.Nominal, ex.Real)
	}
	if ex.BenefitBase != 806371.2 {
		t.Fatalf("expected base 806371.2, got %v", ex.BenefitBase)
	}
	if ex.LifeMonths != 240 || ex.YearsToRetirement != 40 {
		t.Fatalf("unexpected months/years %d/%d", ex.LifeMonths, ex.YearsToRetirement)
	}
	if math.Abs(ex.DeflationFactor-math.Pow(1.03, 40)) > 1e-9 {
		t.Fatalf("unexpected deflation factor %v", ex.DeflationFactor)
	}
}

func TestTimeline(t *testing.T) {
	e := referenceEngine(t)
	req := referenceRequest()
	retire := 2030
	req.RetireYear = &retire

	points, err := e.Timeline(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("expected 10 points, got %d", len(points))
	}
	if points[0].RetireYear != 2021 || points[0].ContributionYears != 1 {
		t.Fatalf("unexpected first point %+v", points[0])
	}
	last := points[len(points)-1]
	if last.RetireYear != 2030 || last.ContributionYears != 10 {
		t.Fatalf("unexpected last point %+v", last)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Benefit.Nominal <= points[i-1].Benefit.Nominal {
			t.Fatalf("expected nominal benefit to grow with retire year at %d", points[i].RetireYear)
		}
	}
}

func TestWhatIf(t *testing.T) {
	e := referenceEngine(t)
	res, err := e.WhatIf(referenceRequest(), []int{0, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(res.Scenarios))
	}

	delayed := referenceRequest()
	retire := 2070
	delayed.RetireYear = &retire
	direct, err := e.Simulate(delayed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s5 := res.Scenarios[1]
	if s5.RetireYear != 2070 || s5.Benefit != direct.Benefit {
		t.Fatalf("expected delay 5 to equal a direct 2070 run, got %+v vs %+v", s5.Benefit, direct.Benefit)
	}
	if s5.AssumedBonusPercent == nil || *s5.AssumedBonusPercent != 42 {
		t.Fatalf("expected assumed bonus 42, got %v", s5.AssumedBonusPercent)
	}
	if res.BaselineBenefit.Real != 1029.99 {
		t.Fatalf("expected baseline real 1029.99, got %v", res.BaselineBenefit.Real)
	}
}

func TestWhatIfRejectsNegativeDelay(t *testing.T) {
	e := referenceEngine(t)
	_, err := e.WhatIf(referenceRequest(), []int{-1})
	ve, ok := IsValidation(err)
	if !ok || ve.Messages[0].Code != model.CodeInvalidDelays {
		t.Fatalf("expected INVALID_DELAYS, got %v", err)
	}
}

type recorder struct {
	calls int
	err   error
}

func (r *recorder) Record(*model.SimulationRequest, *model.SimulationResult, time.Time) error {
	r.calls++
	return r.err
}

func TestUsageRecorder(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	e := referenceEngine(t, WithUsageRecorder(rec))
	if _, err := e.Simulate(referenceRequest()); err != nil {
		t.Fatalf("recorder failure must not fail the simulation: %v", err)
	}
	req := referenceRequest()
	req.Age = 5
	e.Simulate(req)
	if rec.calls != 1 {
		t.Fatalf("expected 1 recorded simulation, got %d", rec.calls)
	}
}

func TestAssumptionsView(t *testing.T) {
	e := referenceEngine(t)
	v := e.Assumptions()
	if v.LifeMonths != 240 || v.ContributionRate != 0.1952 || v.CPIDefault != 0.03 {
		t.Fatalf("unexpected defaults %+v", v)
	}
	if v.SickLeaveDays["K"] != 36.5 {
		t.Fatalf("expected sick leave days for K, got %v", v.SickLeaveDays)
	}
}

func TestReloadStaticStoreReportsNoChanges(t *testing.T) {
	e := referenceEngine(t)
	report := e.Reload()
	if len(report.Changes) != 0 {
		t.Fatalf("expected no changes, got %+v", report.Changes)
	}
	if !report.Assumptions.Loaded {
		t.Fatal("expected assumptions to be reported as loaded")
	}
}

func TestSickLeaveExclusionDifferenceEqualsLoss(t *testing.T) {
	e := referenceEngine(t)
	with, err := e.Simulate(referenceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := referenceRequest()
	excluded := false
	req.IncludeSickLeave = &excluded
	without, err := e.Simulate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if without.Benefit.Real < with.Benefit.Real {
		t.Fatalf("expected excluding sick leave to raise the real benefit: %v < %v", without.Benefit.Real, with.Benefit.Real)
	}
	diff := math.Round((without.Benefit.Real-with.Benefit.Real)*100) / 100
	if diff != with.SickLeave.LossAbs {
		t.Fatalf("expected difference %v to equal loss_abs %v", diff, with.SickLeave.LossAbs)
	}
}
