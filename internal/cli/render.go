package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"

	"pension-forecast/internal/model"
)

func pln(v float64) string {
	return money.NewFromFloat(v, money.PLN).Display()
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func renderResult(w io.Writer, res *model.SimulationResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Retire year\t%d\n", res.RetireYear)
	fmt.Fprintf(tw, "Nominal benefit\t%s\n", pln(res.Benefit.Nominal))
	fmt.Fprintf(tw, "Real benefit (%d money)\t%s\n", res.AssumptionsUsed.CurrentYear, pln(res.Benefit.Real))
	fmt.Fprintf(tw, "Replacement rate\t%s\n", pct(res.ReplacementRate.WageBased))
	fmt.Fprintf(tw, "Indexed replacement rate\t%s\n", pct(res.ReplacementRate.IndexedWageBased))
	if v := res.AverageBenefit.Value; v != nil {
		fmt.Fprintf(tw, "Average benefit %d (%s)\t%s\t%s\n", res.AverageBenefit.Year, res.AverageBenefit.Source, pln(*v), pct(res.AverageBenefit.DifferencePercent))
	}
	if res.SickLeave.Included {
		fmt.Fprintf(tw, "Sick leave loss\t%s\t%.2f%%\n", pln(res.SickLeave.LossAbs), res.SickLeave.LossPct)
	}
	if gs := res.GoalSeek; gs.Active {
		switch {
		case gs.Found:
			fmt.Fprintf(tw, "Expected %s reached after\t%d extra year(s)\n", pln(*gs.Target), *gs.ExtraYearsNeeded)
		default:
			fmt.Fprintf(tw, "Expected %s not reached by\t%d\n", pln(*gs.Target), gs.LastYearChecked)
		}
	}
	for _, s := range res.Scenarios {
		fmt.Fprintf(tw, "Retire +%d (%d)\t%s\t%s\n", s.DelayYears, s.RetireYear, pln(s.Benefit.Real), pct(s.ReplacementRate))
	}
	for _, m := range res.Messages {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Level, m.Code, m.Message)
	}
	return tw.Flush()
}

func renderTimeline(w io.Writer, points []model.TimelinePoint) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "retire year\tyears\tnominal\treal\treplacement\t")
	for _, p := range points {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t\n", p.RetireYear, p.ContributionYears, pln(p.Benefit.Nominal), pln(p.Benefit.Real), pct(p.ReplacementRate))
	}
	return tw.Flush()
}

func renderWhatIf(w io.Writer, res *model.WhatIfResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "delay\tretire year\tnominal\treal\tdelta real\treplacement\t")
	for _, s := range res.Scenarios {
		fmt.Fprintf(tw, "+%d\t%d\t%s\t%s\t%s\t%s\t\n", s.DelayYears, s.RetireYear, pln(s.Benefit.Nominal), pln(s.Benefit.Real), pln(s.DeltaReal), pct(s.ReplacementRate))
	}
	return tw.Flush()
}

// explainMarkdown lays an explanation out as a markdown document.
func explainMarkdown(ex *model.Explanation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Benefit projection %d\n\n", ex.RetireYear)
	fmt.Fprintf(&b, "Wages: **%s**, growth %.2f%%, contribution rate %.2f%%.\n\n", ex.WageTimelineSource, 100*ex.WageGrowth, 100*ex.ContributionRate)

	b.WriteString("| Year | Wage | Monthly base | Annual base | Sick factor | Contribution | Indexation | Indexed |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, y := range ex.Years {
		fmt.Fprintf(&b, "| %d | %.2f | %.2f | %.2f | %.4f | %.2f | %.4f | %.2f |\n",
			y.Year, y.Wage, y.MonthlyBase, y.AnnualBase, y.SickLeaveFactor, y.Contribution, y.IndexationProduct, y.Indexed)
	}

	q := ex.QuarterlyReference
	b.WriteString("\n## Benefit\n\n")
	fmt.Fprintf(&b, "- Annually indexed total: %s\n", pln(ex.AnnualIndexedTotal))
	fmt.Fprintf(&b, "- Quarterly indexation %dQ%d: x%.4f = %s\n", q.Year, q.Quarter, q.Factor, pln(ex.QuarterlyIndexedTotal))
	fmt.Fprintf(&b, "- Account %s, sub-account %s\n", pln(ex.AccountBalance), pln(ex.SubAccountBalance))
	fmt.Fprintf(&b, "- Benefit base: %s over %d months\n", pln(ex.BenefitBase), ex.LifeMonths)
	fmt.Fprintf(&b, "- Nominal: **%s**\n", pln(ex.Nominal))
	fmt.Fprintf(&b, "- CPI %.2f%% (%s) over %d years, deflator %.4f\n", 100*ex.CPI, ex.CPISource, ex.YearsToRetirement, ex.DeflationFactor)
	fmt.Fprintf(&b, "- Real: **%s**\n", pln(ex.Real))

	if len(ex.Messages) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, m := range ex.Messages {
			fmt.Fprintf(&b, "- `%s` %s\n", m.Code, m.Message)
		}
	}
	return b.String()
}

func renderMarkdown(md, style string) (string, error) {
	opt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(120))
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}
