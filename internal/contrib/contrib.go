// Package contrib turns a wage timeline into yearly contributions and indexes
// them up to retirement.
package contrib

import (
	"sort"

	"pension-forecast/internal/tables"
	"pension-forecast/internal/wages"
)

const (
	ContributionRate = 0.1952

	monthlyCapMultiple = 2.5
	annualCapMultiple  = 30.0
	maxSickShare       = 0.25
	daysInYear         = 365.0
)

// SickLeaveFactor scales a year's contribution by the share of the year not
// spent on sick leave, floored at 0.75.
func SickLeaveFactor(days float64) float64 {
	if days <= 0 {
		return 1
	}
	share := days / daysInYear
	if share > maxSickShare {
		share = maxSickShare
	}
	return 1 - share
}

// SickLeave selects the per-year day count behind the sick-leave factor.
type SickLeave struct {
	Included  bool
	Sex       string
	Overrides map[int]float64
}

// Days returns the sick-leave day count applied to year.
func (s SickLeave) Days(a tables.AssumptionsTable, year int) float64 {
	if !s.Included {
		return 0
	}
	if d, ok := s.Overrides[year]; ok {
		return d
	}
	d, _ := a.SickDays(s.Sex)
	return d
}

type Row struct {
	Year         int
	Wage         float64
	AvgWage      *float64
	MonthlyBase  float64
	AnnualBase   float64
	SickDays     float64
	SickFactor   float64
	Contribution float64
}

// Ledger holds one row per contribution year in ascending order.
type Ledger []Row

// Build computes the capped contribution of every year in the timeline.
func Build(snap *tables.Snapshot, tl wages.Timeline, sick SickLeave) Ledger {
	years := tl.Years()
	ledger := make(Ledger, 0, len(years))
	for _, y := range years {
		row := Row{Year: y, Wage: tl.Wages[y]}
		monthly := row.Wage
		avg, hasAvg := snap.Mentor.AvgWage(y)
		if hasAvg && avg > 0 {
			row.AvgWage = &avg
			monthly = min(monthly, monthlyCapMultiple*avg)
		}
		annual := 12 * monthly
		if row.AvgWage != nil {
			annual = min(annual, annualCapMultiple*avg)
		}
		row.MonthlyBase = monthly
		row.AnnualBase = annual
		row.SickDays = sick.Days(snap.Assumptions, y)
		row.SickFactor = SickLeaveFactor(row.SickDays)
		row.Contribution = annual * ContributionRate * row.SickFactor
		ledger = append(ledger, row)
	}
	return ledger
}

// AverageSickFactor is the mean factor applied across the ledger; 1 when empty.
func (l Ledger) AverageSickFactor() float64 {
	if len(l) == 0 {
		return 1
	}
	var sum float64
	for _, r := range l {
		sum += r.SickFactor
	}
	return sum / float64(len(l))
}

func (l Ledger) LastYear() int {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Year
}

type Indexed struct {
	Year         int
	Contribution float64
	Product      float64
	Value        float64
}

// Indexation is the per-year breakdown of indexed contributions. Callers sum
// it explicitly.
type Indexation struct {
	Rows []Indexed
	// MissingYears lists years where neither table supplied a factor.
	MissingYears []int
}

// AnnualFactor resolves the yearly indexation factor: assumptions first, then
// the mentor account indexation, else 1.
func AnnualFactor(snap *tables.Snapshot, year int) (float64, bool) {
	if f, ok := snap.Assumptions.Annual(year); ok {
		return f, true
	}
	if f, ok := snap.Mentor.AccountIndexation(year); ok && f > 0 {
		if f > 2 {
			f /= 100
		}
		return f, true
	}
	return 1, false
}

// IndexAnnually carries every contribution made in year r forward by the
// product of factors for years r+1 through endYear.
func IndexAnnually(snap *tables.Snapshot, ledger Ledger, endYear int) Indexation {
	if len(ledger) == 0 {
		return Indexation{}
	}
	first := ledger[0].Year
	factors := make(map[int]float64, endYear-first)
	var missing []int
	for y := first + 1; y <= endYear; y++ {
		f, ok := AnnualFactor(snap, y)
		if !ok {
			missing = append(missing, y)
		}
		factors[y] = f
	}

	rows := make([]Indexed, len(ledger))
	// Walk backwards so each product reuses the next year's.
	product := 1.0
	next := endYear + 1
	for i := len(ledger) - 1; i >= 0; i-- {
		r := ledger[i]
		for y := r.Year + 1; y < next; y++ {
			product *= factors[y]
		}
		next = r.Year + 1
		rows[i] = Indexed{
			Year:         r.Year,
			Contribution: r.Contribution,
			Product:      product,
			Value:        r.Contribution * product,
		}
	}
	return Indexation{Rows: rows, MissingYears: missing}
}

// Sum adds the indexed values in ascending year order.
func (ix Indexation) Sum() float64 {
	rows := make([]Indexed, len(ix.Rows))
	copy(rows, ix.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	var total float64
	for _, r := range rows {
		total += r.Value
	}
	return total
}

// QuarterReference maps the award quarter of the retirement year to the
// quarter whose indexation applies.
func QuarterReference(retireYear, quarter int) tables.Quarter {
	switch quarter {
	case 1:
		return tables.Quarter{Year: retireYear - 1, Q: 3}
	case 2:
		return tables.Quarter{Year: retireYear - 1, Q: 4}
	case 4:
		return tables.Quarter{Year: retireYear, Q: 2}
	default:
		return tables.Quarter{Year: retireYear, Q: 1}
	}
}

// QuarterlyFactor returns the factor for the reference quarter, 1 when absent.
func QuarterlyFactor(snap *tables.Snapshot, q tables.Quarter) float64 {
	if f, ok := snap.Assumptions.Quarterly(q); ok {
		return f
	}
	return 1
}

func BenefitBase(indexedTotal, quarterlyFactor, account, subAccount float64) float64 {
	return indexedTotal*quarterlyFactor + account + subAccount
}
