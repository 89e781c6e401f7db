package tables

import (
	"sort"
	"time"

	"pension-forecast/internal/model"
)

// Report summarises next and lists what changed since prev.
func Report(prev, next *Snapshot, sources Sources) model.ReloadReport {
	return model.ReloadReport{
		LoadedAt:       formatTime(next.LoadedAt),
		Assumptions:    status(next.Assumptions.Len(), next.Assumptions.Years(), false, sources.Assumptions),
		MentorParams:   status(len(next.Mentor), next.Mentor.Years(), false, sources.MentorParams),
		AverageBenefit: status(len(next.AverageBenefit.Values), next.AverageBenefit.Years(), next.AverageBenefit.Synthetic, sources.AverageBenefit),
		Changes:        Diff(prev, next),
	}
}

// Sources returns the configured sources.
func (s *Store) Sources() Sources {
	return s.sources
}

// View converts a snapshot into its transport form.
func View(snap *Snapshot) model.AssumptionsView {
	a := snap.Assumptions
	quarterly := make(map[string]float64, len(a.QuarterlyIndexation))
	for q, v := range a.QuarterlyIndexation {
		quarterly[q.String()] = v
	}
	return model.AssumptionsView{
		LoadedAt:            formatTime(snap.LoadedAt),
		AnnualIndexation:    a.AnnualIndexation,
		QuarterlyIndexation: quarterly,
		SickLeaveDays:       a.SickLeaveDays,
		DelayScenarios:      a.DelayScenarios,
		AverageBenefit:      snap.AverageBenefit.Values,
		MentorYears:         snap.Mentor.Years(),
	}
}

func status(rows int, years []int, synthetic bool, source string) model.TableStatus {
	st := model.TableStatus{Loaded: rows > 0, Rows: rows, Synthetic: synthetic, Source: source}
	if len(years) > 0 {
		sort.Ints(years)
		lo, hi := years[0], years[len(years)-1]
		st.MinYear, st.MaxYear = &lo, &hi
	}
	return st
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
