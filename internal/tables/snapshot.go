// Package tables holds the process-wide lookup tables consumed by the
// projection pipeline: assumptions, mentor parameters and average benefits.
// A Snapshot is built completely before it is published and is never mutated
// afterwards.
package tables

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Quarter identifies a quarterly indexation entry, written "{year}Q{q}".
type Quarter struct {
	Year int
	Q    int
}

func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Q)
}

// ParseQuarter parses keys such as "2065Q1" (case-insensitive).
func ParseQuarter(s string) (Quarter, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := strings.IndexByte(s, 'Q')
	if i <= 0 || i == len(s)-1 {
		return Quarter{}, false
	}
	y, err := strconv.Atoi(s[:i])
	if err != nil {
		return Quarter{}, false
	}
	q, err := strconv.Atoi(s[i+1:])
	if err != nil || q < 1 || q > 4 {
		return Quarter{}, false
	}
	return Quarter{Year: y, Q: q}, true
}

type AssumptionsTable struct {
	AnnualIndexation    map[int]float64
	QuarterlyIndexation map[Quarter]float64
	SickLeaveDays       map[string]float64
	DelayScenarios      map[string]float64
	AverageBenefit      map[int]float64
}

func (a AssumptionsTable) Annual(year int) (float64, bool) {
	v, ok := a.AnnualIndexation[year]
	return v, ok
}

func (a AssumptionsTable) Quarterly(q Quarter) (float64, bool) {
	v, ok := a.QuarterlyIndexation[q]
	return v, ok
}

// SickDays returns the average yearly sick-leave days for the sex code.
func (a AssumptionsTable) SickDays(sex string) (float64, bool) {
	v, ok := a.SickLeaveDays[strings.ToUpper(sex)]
	return v, ok
}

func (a AssumptionsTable) Len() int {
	return len(a.AnnualIndexation) + len(a.QuarterlyIndexation) + len(a.SickLeaveDays) +
		len(a.DelayScenarios) + len(a.AverageBenefit)
}

// Years lists every year the table holds a yearly or quarterly value for.
func (a AssumptionsTable) Years() []int {
	seen := make(map[int]struct{})
	for y := range a.AnnualIndexation {
		seen[y] = struct{}{}
	}
	for q := range a.QuarterlyIndexation {
		seen[q.Year] = struct{}{}
	}
	for y := range a.AverageBenefit {
		seen[y] = struct{}{}
	}
	return sortedKeys(seen)
}

// MentorRow is one year of macro parameters. Absent cells stay nil.
type MentorRow struct {
	CPIIndex             *float64
	RealWageIndex        *float64
	AvgWage              *float64
	AccountIndexation    *float64
	SubaccountIndexation *float64
}

func (r MentorRow) empty() bool {
	return r.CPIIndex == nil && r.RealWageIndex == nil && r.AvgWage == nil &&
		r.AccountIndexation == nil && r.SubaccountIndexation == nil
}

type MentorParams map[int]MentorRow

func (m MentorParams) AvgWage(year int) (float64, bool) {
	return deref(m[year].AvgWage)
}

func (m MentorParams) CPIIndex(year int) (float64, bool) {
	return deref(m[year].CPIIndex)
}

func (m MentorParams) AccountIndexation(year int) (float64, bool) {
	return deref(m[year].AccountIndexation)
}

func (m MentorParams) Years() []int {
	seen := make(map[int]struct{}, len(m))
	for y := range m {
		seen[y] = struct{}{}
	}
	return sortedKeys(seen)
}

// AverageBenefitTable maps a year to the average monthly benefit paid.
// Synthetic marks values produced by seeding rather than a real source.
type AverageBenefitTable struct {
	Values    map[int]float64
	Synthetic bool
}

func (t AverageBenefitTable) Years() []int {
	seen := make(map[int]struct{}, len(t.Values))
	for y := range t.Values {
		seen[y] = struct{}{}
	}
	return sortedKeys(seen)
}

type Snapshot struct {
	Assumptions    AssumptionsTable
	Mentor         MentorParams
	AverageBenefit AverageBenefitTable
	LoadedAt       time.Time
}

// Empty returns a snapshot with no data; every lookup falls back.
func Empty() *Snapshot {
	return &Snapshot{
		Assumptions: AssumptionsTable{
			AnnualIndexation:    map[int]float64{},
			QuarterlyIndexation: map[Quarter]float64{},
			SickLeaveDays:       map[string]float64{},
			DelayScenarios:      map[string]float64{},
			AverageBenefit:      map[int]float64{},
		},
		Mentor:         MentorParams{},
		AverageBenefit: AverageBenefitTable{Values: map[int]float64{}},
	}
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// normalizeFactor accepts both 1.0941 and 109.41 notations.
func normalizeFactor(v float64) float64 {
	if v > 2 {
		return v / 100
	}
	return v
}
