// Package projection runs the full wage to benefit pipeline once and keeps
// every intermediate value so callers can report or explain it.
package projection

import (
	"fmt"
	"math"

	"pension-forecast/internal/benefit"
	"pension-forecast/internal/contrib"
	"pension-forecast/internal/model"
	"pension-forecast/internal/rates"
	"pension-forecast/internal/tables"
	"pension-forecast/internal/wages"
)

type Config struct {
	LifeMonths int
	Rates      rates.Config
	Wages      wages.Config
}

func DefaultConfig() Config {
	return Config{
		LifeMonths: benefit.DefaultLifeMonths,
		Rates:      rates.DefaultConfig(),
		Wages:      wages.Config{AutoBackcast: true},
	}
}

// Run is one complete projection for a single retirement year.
type Run struct {
	CurrentYear int
	RetireYear  int

	Timeline   wages.Timeline
	Ledger     contrib.Ledger
	Indexation contrib.Indexation

	IndexedTotal    float64
	Quarter         tables.Quarter
	QuarterlyFactor float64
	Account         float64
	SubAccount      float64
	Base            float64

	LifeMonths        int
	Nominal           float64
	CPI               float64
	CPISource         rates.Source
	YearsToRetirement int
	DeflationFactor   float64
	Real              float64

	ProjectedWage float64
}

// Projector evaluates requests against one snapshot and a fixed current year.
type Projector struct {
	cfg         Config
	resolver    *rates.Resolver
	wages       *wages.Builder
	currentYear int
}

func New(cfg Config, snap *tables.Snapshot, currentYear int) *Projector {
	if cfg.LifeMonths == 0 {
		cfg.LifeMonths = benefit.DefaultLifeMonths
	}
	r := rates.New(cfg.Rates, snap)
	return &Projector{
		cfg:         cfg,
		resolver:    r,
		wages:       wages.NewBuilder(cfg.Wages, r, currentYear),
		currentYear: currentYear,
	}
}

func (p *Projector) Resolver() *rates.Resolver {
	return p.resolver
}

func (p *Projector) CurrentYear() int {
	return p.currentYear
}

func (p *Projector) LifeMonths() int {
	return p.cfg.LifeMonths
}

// Run projects req retiring in retireYear. With noSickLeave every sick-leave
// factor is forced to 1 regardless of the request.
func (p *Projector) Run(req model.SimulationRequest, retireYear int, noSickLeave bool) (*Run, error) {
	if retireYear <= req.StartYear {
		return nil, fmt.Errorf("retire year %d must be after start year %d", retireYear, req.StartYear)
	}
	snap := p.resolver.Snapshot()

	tl, err := p.wages.Build(req.GrossSalary, req.StartYear, retireYear, req.CustomWageTimeline)
	if err != nil {
		return nil, fmt.Errorf("build wage timeline: %w", err)
	}

	sick := contrib.SickLeave{
		Included:  req.SickLeaveIncluded() && !noSickLeave,
		Sex:       req.NormalizedSex(),
		Overrides: req.CustomSickDays,
	}
	ledger := contrib.Build(snap, tl, sick)
	ix := contrib.IndexAnnually(snap, ledger, ledger.LastYear())

	run := &Run{
		CurrentYear:  p.currentYear,
		RetireYear:   retireYear,
		Timeline:     tl,
		Ledger:       ledger,
		Indexation:   ix,
		IndexedTotal: ix.Sum(),
		Account:      req.AccountBalance(),
		SubAccount:   req.SubAccountBalance(),
		LifeMonths:   p.cfg.LifeMonths,
	}
	run.Quarter = contrib.QuarterReference(retireYear, req.Quarter())
	run.QuarterlyFactor = contrib.QuarterlyFactor(snap, run.Quarter)
	run.Base = contrib.BenefitBase(run.IndexedTotal, run.QuarterlyFactor, run.Account, run.SubAccount)
	run.Nominal = benefit.Annuitize(run.Base, run.LifeMonths)

	run.CPI, run.CPISource = p.resolver.CPI(p.currentYear)
	run.YearsToRetirement = max(0, retireYear-p.currentYear)
	run.DeflationFactor = math.Pow(1+run.CPI, float64(run.YearsToRetirement))
	run.Real = benefit.Deflate(run.Nominal, run.CPI, run.YearsToRetirement)

	run.ProjectedWage = p.wages.ProjectWage(req.GrossSalary, retireYear, tl.Source)
	return run, nil
}

// Warnings reports the degraded inputs the run fell back on.
func (r *Run) Warnings() []model.CalculationMessage {
	var msgs []model.CalculationMessage
	if r.CPISource == rates.SourceFallback {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeCPIFallback,
			Message: fmt.Sprintf("No CPI index for %d, using default inflation %.4f", r.CurrentYear, r.CPI),
		})
	}
	if r.Timeline.Source == wages.SourceFlatRate {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeWagePathFlatRate,
			Message: "Average wage path incomplete, wages derived from the flat growth rate",
		})
	}
	if len(r.Indexation.MissingYears) > 0 {
		msgs = append(msgs, model.CalculationMessage{
			Level:   model.LevelWarning,
			Code:    model.CodeIndexationFactorMissing,
			Message: fmt.Sprintf("No indexation factor for %d year(s), assumed 1.0", len(r.Indexation.MissingYears)),
			Years:   r.Indexation.MissingYears,
		})
	}
	return msgs
}
