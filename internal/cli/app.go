package cli

import (
	"fmt"

	"go.uber.org/zap"

	"pension-forecast/internal/config"
	"pension-forecast/internal/engine"
	"pension-forecast/internal/logging"
	"pension-forecast/internal/model"
	"pension-forecast/internal/projection"
	"pension-forecast/internal/rates"
	"pension-forecast/internal/tables"
	"pension-forecast/internal/usagelog"
	"pension-forecast/internal/wages"
)

// app is the wired set of collaborators shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *tables.Store
	engine *engine.Engine
	usage  *usagelog.Log

	// initial is the report of the startup load, diffed against empty tables.
	initial model.ReloadReport
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging, opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	store := tables.NewStore(sources(cfg.Tables), logger)

	a := &app{cfg: cfg, logger: logger, store: store}
	var engineOpts []engine.Option
	if cfg.UsageLog.Enabled {
		a.usage = usagelog.New(cfg.UsageLog.Path)
		engineOpts = append(engineOpts, engine.WithUsageRecorder(a.usage))
	}
	a.engine = engine.New(engineConfig(cfg), store, logger, engineOpts...)
	a.initial = a.engine.Reload()
	return a, nil
}

func sources(t config.TablesConfig) tables.Sources {
	return tables.Sources{
		Assumptions:        t.Assumptions,
		MentorParams:       t.MentorParams,
		AverageBenefit:     t.AverageBenefit,
		SeedAverageBenefit: t.SeedAverageBenefit,
		SeedBase:           t.SeedBase,
		FetchTimeout:       t.FetchTimeout,
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Projection: projection.Config{
			LifeMonths: cfg.Engine.LifeMonths,
			Rates: rates.Config{
				CPIDefault:        cfg.Rates.CPIDefault,
				WageGrowthDefault: cfg.Rates.WageGrowthDefault,
			},
			Wages: wages.Config{AutoBackcast: cfg.Wages.AutoBackcast},
		},
		DefaultRetirementAge: cfg.Engine.DefaultRetirementAge,
		GoalSeekMaxYears:     cfg.Engine.GoalSeekMaxYears,
		DefaultDelays:        cfg.Engine.DefaultDelays,
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
}
