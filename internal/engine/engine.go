// Package engine exposes the public operations of the pension projection:
// simulate, explain, timeline, what-if and table reloads.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pension-forecast/internal/benefit"
	"pension-forecast/internal/contrib"
	"pension-forecast/internal/model"
	"pension-forecast/internal/projection"
	"pension-forecast/internal/rates"
	"pension-forecast/internal/scenario"
	"pension-forecast/internal/tables"
)

const DefaultRetirementAge = 60

type Config struct {
	Projection           projection.Config
	DefaultRetirementAge int
	GoalSeekMaxYears     int
	DefaultDelays        []int
}

func DefaultConfig() Config {
	return Config{
		Projection:           projection.DefaultConfig(),
		DefaultRetirementAge: DefaultRetirementAge,
		GoalSeekMaxYears:     scenario.DefaultGoalSeekMaxYears,
		DefaultDelays:        scenario.DefaultDelays(),
	}
}

// UsageRecorder receives every successful simulation.
type UsageRecorder interface {
	Record(req *model.SimulationRequest, res *model.SimulationResult, at time.Time) error
}

type Option func(*Engine)

// WithClock fixes the clock that decides the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithUsageRecorder(r UsageRecorder) Option {
	return func(e *Engine) { e.usage = r }
}

type Engine struct {
	cfg    Config
	store  *tables.Store
	logger *zap.Logger
	now    func() time.Time
	usage  UsageRecorder
}

func New(cfg Config, store *tables.Store, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = tables.NewStaticStore(tables.Empty())
	}
	e := &Engine{cfg: cfg, store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// call is the per-request state shared by the operations: one clock reading,
// one snapshot and the projector built on it.
type call struct {
	started    time.Time
	snap       *tables.Snapshot
	projector  *projection.Projector
	retireYear int
}

func (e *Engine) begin(req *model.SimulationRequest) (*call, error) {
	started := e.now()
	currentYear := started.Year()
	retire := e.retireYear(req, currentYear)
	if err := validate(req, retire); err != nil {
		return nil, err
	}
	snap := e.store.Current()
	return &call{
		started:    started,
		snap:       snap,
		projector:  projection.New(e.cfg.Projection, snap, currentYear),
		retireYear: retire,
	}, nil
}

// retireYear resolves the requested retirement year, defaulting to the year
// the person reaches the default retirement age.
func (e *Engine) retireYear(req *model.SimulationRequest, currentYear int) int {
	if req.RetireYear != nil {
		return *req.RetireYear
	}
	age := e.cfg.DefaultRetirementAge
	if age == 0 {
		age = DefaultRetirementAge
	}
	return currentYear + max(0, age-req.Age)
}

func (e *Engine) metadata(c *call) model.CalculationMetadata {
	completed := e.now()
	elapsed := completed.Sub(c.started)
	md := model.CalculationMetadata{
		CalculationID:          uuid.New().String(),
		CalculationStartedAt:   c.started.UTC().Format(time.RFC3339),
		CalculationCompletedAt: completed.UTC().Format(time.RFC3339),
		CalculationDurationMs:  elapsed.Milliseconds(),
	}
	if !c.snap.LoadedAt.IsZero() {
		md.TablesLoadedAt = c.snap.LoadedAt.UTC().Format(time.RFC3339)
	}
	return md
}

// Simulate runs the full projection for req together with its sick-leave
// impact, goal-seek and default what-if scenarios.
func (e *Engine) Simulate(req *model.SimulationRequest) (*model.SimulationResult, error) {
	c, err := e.begin(req)
	if err != nil {
		return nil, err
	}
	p := c.projector

	baseline, scenarios, err := scenario.WhatIf(p, *req, c.retireYear, e.delays(nil), c.snap.Assumptions.DelayScenarios)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	sick, err := scenario.SickLeaveImpact(p, *req, baseline)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	goal, err := scenario.GoalSeek(p, *req, baseline, e.goalSeekMaxYears())
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	msgs := baseline.Warnings()
	avg, avgMsgs := e.averageBenefit(p.Resolver(), baseline)
	msgs = append(msgs, avgMsgs...)

	res := &model.SimulationResult{
		Benefit: model.Benefit{
			Nominal: benefit.Round2(baseline.Nominal),
			Real:    benefit.Round2(baseline.Real),
		},
		RetireYear:     baseline.RetireYear,
		AverageBenefit: avg,
		ReplacementRate: model.ReplacementRates{
			WageBased:        benefit.ReplacementRate(baseline.Real, req.GrossSalary),
			IndexedWageBased: benefit.ReplacementRate(baseline.Nominal, baseline.ProjectedWage),
			ProjectedWage:    benefit.Round2(baseline.ProjectedWage),
		},
		SickLeave:       sick,
		GoalSeek:        goal,
		Scenarios:       scenarios,
		AssumptionsUsed: e.assumptionsUsed(p, baseline),
		Messages:        number(msgs),
	}
	if len(c.snap.Assumptions.DelayScenarios) > 0 {
		res.DelayBonusPercent = c.snap.Assumptions.DelayScenarios
	}
	res.CalculationMetadata = e.metadata(c)

	e.logger.Debug("simulation complete",
		zap.String("op", "engine.Simulate"),
		zap.String("calculation_id", res.CalculationMetadata.CalculationID),
		zap.Int("retire_year", res.RetireYear),
		zap.Float64("nominal", res.Benefit.Nominal),
		zap.Float64("real", res.Benefit.Real),
		zap.Int("warnings", len(res.Messages)),
	)
	if e.usage != nil {
		if err := e.usage.Record(req, res, c.started); err != nil {
			e.logger.Warn("usage log append failed", zap.String("op", "engine.Simulate"), zap.Error(err))
		}
	}
	return res, nil
}

// Explain returns every intermediate value of the baseline projection.
func (e *Engine) Explain(req *model.SimulationRequest) (*model.Explanation, error) {
	c, err := e.begin(req)
	if err != nil {
		return nil, err
	}
	run, err := c.projector.Run(*req, c.retireYear, false)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	years := make([]model.ExplainYear, len(run.Ledger))
	for i, row := range run.Ledger {
		ix := run.Indexation.Rows[i]
		years[i] = model.ExplainYear{
			Year:              row.Year,
			Wage:              benefit.Round2(row.Wage),
			AvgWage:           row.AvgWage,
			MonthlyBase:       benefit.Round2(row.MonthlyBase),
			AnnualBase:        benefit.Round2(row.AnnualBase),
			SickDays:          row.SickDays,
			SickLeaveFactor:   row.SickFactor,
			Contribution:      benefit.Round2(row.Contribution),
			IndexationProduct: ix.Product,
			Indexed:           benefit.Round2(ix.Value),
		}
	}

	ex := &model.Explanation{
		Request:               *req,
		CurrentYear:           run.CurrentYear,
		RetireYear:            run.RetireYear,
		WageTimelineSource:    string(run.Timeline.Source),
		WageGrowth:            c.projector.Resolver().WageGrowthRate(),
		ContributionRate:      contrib.ContributionRate,
		Years:                 years,
		AnnualIndexedTotal:    benefit.Round2(run.IndexedTotal),
		QuarterlyReference:    quarterReference(run),
		QuarterlyIndexedTotal: benefit.Round2(run.IndexedTotal * run.QuarterlyFactor),
		AccountBalance:        run.Account,
		SubAccountBalance:     run.SubAccount,
		BenefitBase:           benefit.Round2(run.Base),
		LifeMonths:            run.LifeMonths,
		Nominal:               benefit.Round2(run.Nominal),
		CPI:                   run.CPI,
		CPISource:             string(run.CPISource),
		YearsToRetirement:     run.YearsToRetirement,
		DeflationFactor:       run.DeflationFactor,
		Real:                  benefit.Round2(run.Real),
		Messages:              number(run.Warnings()),
	}
	ex.Request.RetireYear = &ex.RetireYear
	ex.CalculationMetadata = e.metadata(c)
	return ex, nil
}

// Timeline reruns the projection for every retirement year after the start
// year up to the requested one.
func (e *Engine) Timeline(req *model.SimulationRequest) ([]model.TimelinePoint, error) {
	c, err := e.begin(req)
	if err != nil {
		return nil, err
	}
	points := make([]model.TimelinePoint, 0, c.retireYear-req.StartYear)
	for y := req.StartYear + 1; y <= c.retireYear; y++ {
		run, err := c.projector.Run(*req, y, false)
		if err != nil {
			return nil, fmt.Errorf("timeline %d: %w", y, err)
		}
		points = append(points, model.TimelinePoint{
			RetireYear:        y,
			ContributionYears: len(run.Ledger),
			BenefitBase:       benefit.Round2(run.Base),
			Benefit: model.Benefit{
				Nominal: benefit.Round2(run.Nominal),
				Real:    benefit.Round2(run.Real),
			},
			ReplacementRate: benefit.ReplacementRate(run.Real, req.GrossSalary),
		})
	}
	return points, nil
}

// WhatIf compares the baseline with retiring delays years later. Nil delays
// use the configured defaults.
func (e *Engine) WhatIf(req *model.SimulationRequest, delays []int) (*model.WhatIfResult, error) {
	if err := checkDelays(delays); err != nil {
		return nil, err
	}
	c, err := e.begin(req)
	if err != nil {
		return nil, err
	}
	baseline, scenarios, err := scenario.WhatIf(c.projector, *req, c.retireYear, e.delays(delays), c.snap.Assumptions.DelayScenarios)
	if err != nil {
		return nil, fmt.Errorf("what-if: %w", err)
	}
	return &model.WhatIfResult{
		CalculationMetadata: e.metadata(c),
		BaselineRetireYear:  baseline.RetireYear,
		BaselineBenefit: model.Benefit{
			Nominal: benefit.Round2(baseline.Nominal),
			Real:    benefit.Round2(baseline.Real),
		},
		Scenarios: scenarios,
	}, nil
}

// Reload rebuilds the tables from their sources and reports what changed.
func (e *Engine) Reload() model.ReloadReport {
	prev, next := e.store.Reload()
	report := tables.Report(prev, next, e.store.Sources())
	e.logger.Info("tables reload report",
		zap.String("op", "engine.Reload"),
		zap.String("loaded_at", report.LoadedAt),
		zap.Int("changes", len(report.Changes)),
	)
	return report
}

// Assumptions summarises the tables and defaults currently in use.
func (e *Engine) Assumptions() model.AssumptionsView {
	v := tables.View(e.store.Current())
	v.CPIDefault = e.cfg.Projection.Rates.CPIDefault
	v.WageGrowthDefault = e.cfg.Projection.Rates.WageGrowthDefault
	v.LifeMonths = e.cfg.Projection.LifeMonths
	if v.LifeMonths == 0 {
		v.LifeMonths = benefit.DefaultLifeMonths
	}
	v.ContributionRate = contrib.ContributionRate
	return v
}

func (e *Engine) delays(requested []int) []int {
	if len(requested) > 0 {
		return requested
	}
	if len(e.cfg.DefaultDelays) > 0 {
		return e.cfg.DefaultDelays
	}
	return scenario.DefaultDelays()
}

// goalSeekMaxYears is the configured search window; 0 checks the baseline
// retirement year only.
func (e *Engine) goalSeekMaxYears() int {
	if e.cfg.GoalSeekMaxYears < 0 {
		return scenario.DefaultGoalSeekMaxYears
	}
	return e.cfg.GoalSeekMaxYears
}

func (e *Engine) averageBenefit(r *rates.Resolver, run *projection.Run) (model.AverageBenefitComparison, []model.CalculationMessage) {
	value, src := r.AverageBenefit(run.RetireYear)
	cmp := model.AverageBenefitComparison{
		Year:      run.RetireYear,
		Source:    string(src),
		Synthetic: src == rates.SourceSeeded,
	}
	var msgs []model.CalculationMessage
	switch src {
	case rates.SourceUnavailable:
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeAverageBenefitUnavailable,
			Message: fmt.Sprintf("No average benefit available for %d", run.RetireYear),
		})
	case rates.SourceSeeded:
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeAverageBenefitSynthetic,
			Message: "Average benefit comes from synthetic seeded values",
		})
	case rates.SourceExtrapolated:
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeAverageBenefitExtrapolated,
			Message: fmt.Sprintf("Average benefit for %d extrapolated from the nearest known year", run.RetireYear),
		})
	}
	if value == nil {
		return cmp, msgs
	}
	v := benefit.Round2(*value)
	cmp.Value = &v
	avg := benefit.Cents(*value)
	cmp.DifferencePercent = benefit.PercentOf(benefit.Cents(run.Real).Sub(avg), avg)
	return cmp, msgs
}

func (e *Engine) assumptionsUsed(p *projection.Projector, run *projection.Run) model.AssumptionsUsed {
	return model.AssumptionsUsed{
		CurrentYear:        run.CurrentYear,
		CPI:                run.CPI,
		CPISource:          string(run.CPISource),
		WageGrowth:         p.Resolver().WageGrowthRate(),
		WageTimelineSource: string(run.Timeline.Source),
		LifeMonths:         run.LifeMonths,
		ContributionRate:   contrib.ContributionRate,
		YearsToRetirement:  run.YearsToRetirement,
		QuarterlyReference: quarterReference(run),
	}
}

func quarterReference(run *projection.Run) model.QuarterReference {
	return model.QuarterReference{Year: run.Quarter.Year, Quarter: run.Quarter.Q, Factor: run.QuarterlyFactor}
}

// number assigns sequential ids and never returns nil.
func number(msgs []model.CalculationMessage) []model.CalculationMessage {
	if msgs == nil {
		return []model.CalculationMessage{}
	}
	for i := range msgs {
		msgs[i].ID = i
	}
	return msgs
}
