// Package wages builds the year to gross monthly wage timeline of a career.
package wages

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"pension-forecast/internal/rates"
)

type Source string

const (
	SourceCustom   Source = "custom"
	SourceMentor   Source = "mentor"
	SourceFlatRate Source = "flat_rate"
)

// Timeline covers [StartYear, EndYear). It is not modified after Build.
type Timeline struct {
	Wages     map[int]float64
	Source    Source
	StartYear int
	EndYear   int
}

func (t Timeline) Years() []int {
	years := make([]int, 0, len(t.Wages))
	for y := range t.Wages {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// InvalidTimelineError lists the years of a custom timeline that are missing
// or hold a non-positive or non-finite wage.
type InvalidTimelineError struct {
	Years []int
}

func (e *InvalidTimelineError) Error() string {
	parts := make([]string, len(e.Years))
	for i, y := range e.Years {
		parts[i] = strconv.Itoa(y)
	}
	return fmt.Sprintf("custom wage timeline has missing or non-positive wages for years %s", strings.Join(parts, ", "))
}

type Config struct {
	// AutoBackcast enables scaling the salary along the mentor average-wage path.
	AutoBackcast bool
}

type Builder struct {
	cfg         Config
	resolver    *rates.Resolver
	currentYear int
}

func NewBuilder(cfg Config, resolver *rates.Resolver, currentYear int) *Builder {
	return &Builder{cfg: cfg, resolver: resolver, currentYear: currentYear}
}

// ValidateCustom checks that every year in [start, end) carries a positive
// finite wage.
func ValidateCustom(custom map[int]*float64, start, end int) error {
	var bad []int
	for y := start; y < end; y++ {
		w, ok := custom[y]
		if !ok || w == nil || *w <= 0 || math.IsNaN(*w) || math.IsInf(*w, 0) {
			bad = append(bad, y)
		}
	}
	if len(bad) > 0 {
		return &InvalidTimelineError{Years: bad}
	}
	return nil
}

// Build returns the wage timeline for [start, end). A custom timeline wins,
// then the mentor average-wage path, then the flat growth rate.
func (b *Builder) Build(salary float64, start, end int, custom map[int]*float64) (Timeline, error) {
	t := Timeline{Wages: make(map[int]float64, end-start), StartYear: start, EndYear: end}

	if len(custom) > 0 {
		if err := ValidateCustom(custom, start, end); err != nil {
			return Timeline{}, err
		}
		for y := start; y < end; y++ {
			t.Wages[y] = *custom[y]
		}
		t.Source = SourceCustom
		return t, nil
	}

	if anchorWage, ok := b.mentorPath(start, end); ok {
		m := b.resolver.Snapshot().Mentor
		for y := start; y < end; y++ {
			avg, _ := m.AvgWage(y)
			t.Wages[y] = salary * avg / anchorWage
		}
		t.Source = SourceMentor
		return t, nil
	}

	g := b.resolver.WageGrowthRate()
	for y := start; y < end; y++ {
		t.Wages[y] = salary / math.Pow(1+g, float64(b.currentYear-y))
	}
	t.Source = SourceFlatRate
	return t, nil
}

// ProjectWage grows salary to year along the source the timeline was built
// from: the mentor ratio only for a mentor timeline, the flat rate otherwise.
func (b *Builder) ProjectWage(salary float64, year int, source Source) float64 {
	if source == SourceMentor {
		if _, anchorWage, ok := b.anchor(); ok {
			if avg, ok := b.resolver.Snapshot().Mentor.AvgWage(year); ok && avg > 0 {
				return salary * avg / anchorWage
			}
		}
	}
	return salary * math.Pow(1+b.resolver.WageGrowthRate(), float64(year-b.currentYear))
}

// mentorPath reports whether every year in range has a positive average wage
// and returns the anchor year's wage.
func (b *Builder) mentorPath(start, end int) (float64, bool) {
	if !b.cfg.AutoBackcast {
		return 0, false
	}
	_, anchorWage, ok := b.anchor()
	if !ok {
		return 0, false
	}
	m := b.resolver.Snapshot().Mentor
	for y := start; y < end; y++ {
		if avg, ok := m.AvgWage(y); !ok || avg <= 0 {
			return 0, false
		}
	}
	return anchorWage, true
}

// anchor is the closest year not after the current year with a positive
// average wage.
func (b *Builder) anchor() (int, float64, bool) {
	years := b.resolver.Snapshot().Mentor.Years()
	for i := len(years) - 1; i >= 0; i-- {
		y := years[i]
		if y > b.currentYear {
			continue
		}
		if avg, ok := b.resolver.Snapshot().Mentor.AvgWage(y); ok && avg > 0 {
			return y, avg, true
		}
	}
	return 0, 0, false
}
