// Package rates resolves CPI, wage growth and average benefit figures for a
// year. Every lookup returns a usable value together with the source it came
// from; nothing here fails.
package rates

import (
	"math"
	"sort"

	"pension-forecast/internal/tables"
)

type Source string

const (
	SourceMentor       Source = "mentor"
	SourceFallback     Source = "fallback"
	SourceTable        Source = "table"
	SourceExtrapolated Source = "extrapolated"
	SourceSeeded       Source = "seeded"
	SourceAssumptions  Source = "assumptions"
	SourceUnavailable  Source = "unavailable"
)

const (
	DefaultCPI        = 0.03
	DefaultWageGrowth = 0.03

	// cagrWindow bounds how many adjacent-year pairs feed the growth estimate.
	cagrWindow = 5
)

type Config struct {
	CPIDefault        float64
	WageGrowthDefault float64
}

func DefaultConfig() Config {
	return Config{CPIDefault: DefaultCPI, WageGrowthDefault: DefaultWageGrowth}
}

type Resolver struct {
	cfg  Config
	snap *tables.Snapshot
}

func New(cfg Config, snap *tables.Snapshot) *Resolver {
	if snap == nil {
		snap = tables.Empty()
	}
	return &Resolver{cfg: cfg, snap: snap}
}

func (r *Resolver) Snapshot() *tables.Snapshot {
	return r.snap
}

// WageGrowthRate is the flat rate used when the mentor table cannot supply a
// full average-wage path.
func (r *Resolver) WageGrowthRate() float64 {
	return r.cfg.WageGrowthDefault
}

// CPI returns the yearly inflation rate derived from the mentor CPI index of
// currentYear, or the configured default.
func (r *Resolver) CPI(currentYear int) (float64, Source) {
	if idx, ok := r.snap.Mentor.CPIIndex(currentYear); ok && idx > 0 {
		if idx > 2 {
			idx /= 100
		}
		return idx - 1, SourceMentor
	}
	return r.cfg.CPIDefault, SourceFallback
}

// AverageBenefit returns the average monthly benefit for year. Years missing
// from the table are extrapolated from the nearest known year using the
// compound growth of the last adjacent-year pairs. A nil value means no
// comparison is available; callers must not treat it as zero.
func (r *Resolver) AverageBenefit(year int) (*float64, Source) {
	t := r.snap.AverageBenefit
	if len(t.Values) > 0 {
		if v, ok := t.Values[year]; ok {
			return &v, pick(t.Synthetic, SourceSeeded, SourceTable)
		}
		years := t.Years()
		near := nearestYear(years, year)
		v := t.Values[near] * math.Pow(1+growthRate(t.Values, years), float64(year-near))
		return &v, pick(t.Synthetic, SourceSeeded, SourceExtrapolated)
	}
	if v, ok := r.snap.Assumptions.AverageBenefit[year]; ok {
		return &v, SourceAssumptions
	}
	return nil, SourceUnavailable
}

// growthRate is the geometric mean of the ratios of at most the last
// cagrWindow adjacent-year pairs, minus one. Zero when no pair exists.
func growthRate(values map[int]float64, years []int) float64 {
	var logs []float64
	for i := 0; i+1 < len(years); i++ {
		a, b := years[i], years[i+1]
		if b != a+1 || values[a] <= 0 || values[b] <= 0 {
			continue
		}
		logs = append(logs, math.Log(values[b]/values[a]))
	}
	if len(logs) == 0 {
		return 0
	}
	if len(logs) > cagrWindow {
		logs = logs[len(logs)-cagrWindow:]
	}
	var sum float64
	for _, l := range logs {
		sum += l
	}
	return math.Exp(sum/float64(len(logs))) - 1
}

// nearestYear returns the known year closest to year; ties go to the earlier.
func nearestYear(years []int, year int) int {
	i := sort.SearchInts(years, year)
	switch {
	case i == 0:
		return years[0]
	case i == len(years):
		return years[len(years)-1]
	}
	lo, hi := years[i-1], years[i]
	if year-lo <= hi-year {
		return lo
	}
	return hi
}

func pick(cond bool, a, b Source) Source {
	if cond {
		return a
	}
	return b
}
