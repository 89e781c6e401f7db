package tables

import (
	"sort"
	"strconv"
	"strings"

	"pension-forecast/internal/model"
)

// Diff lists the entries that differ between two snapshots as JSON-pointer
// style paths, e.g. "/assumptions/annual_indexation/2025". Operations follow
// RFC 6902 naming: add, remove, replace.
func Diff(a, b *Snapshot) []model.TableChange {
	if a == nil {
		a = Empty()
	}
	if b == nil {
		b = Empty()
	}

	var ops []model.TableChange
	ops = append(ops, diffFloats("/assumptions/annual_indexation", a.Assumptions.AnnualIndexation, b.Assumptions.AnnualIndexation, strconv.Itoa)...)
	ops = append(ops, diffFloats("/assumptions/quarterly_indexation", a.Assumptions.QuarterlyIndexation, b.Assumptions.QuarterlyIndexation, Quarter.String)...)
	ops = append(ops, diffFloats("/assumptions/sick_leave_days", a.Assumptions.SickLeaveDays, b.Assumptions.SickLeaveDays, identity)...)
	ops = append(ops, diffFloats("/assumptions/delay_scenarios", a.Assumptions.DelayScenarios, b.Assumptions.DelayScenarios, identity)...)
	ops = append(ops, diffFloats("/assumptions/average_benefit", a.Assumptions.AverageBenefit, b.Assumptions.AverageBenefit, strconv.Itoa)...)
	ops = append(ops, diffMentor(a.Mentor, b.Mentor)...)
	ops = append(ops, diffFloats("/average_benefit", a.AverageBenefit.Values, b.AverageBenefit.Values, strconv.Itoa)...)

	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })
	if ops == nil {
		ops = []model.TableChange{}
	}
	return ops
}

func identity(s string) string { return s }

func diffFloats[K comparable](path string, a, b map[K]float64, key func(K) string) []model.TableChange {
	var ops []model.TableChange
	for k := range a {
		if _, ok := b[k]; !ok {
			ops = append(ops, removeOp(path+"/"+escapeKey(key(k))))
		}
	}
	for k, bv := range b {
		av, ok := a[k]
		switch {
		case !ok:
			ops = append(ops, addOp(path+"/"+escapeKey(key(k))))
		case av != bv:
			ops = append(ops, replaceOp(path+"/"+escapeKey(key(k))))
		}
	}
	return ops
}

func diffMentor(a, b MentorParams) []model.TableChange {
	var ops []model.TableChange
	for y := range a {
		if _, ok := b[y]; !ok {
			ops = append(ops, removeOp("/mentor_params/"+strconv.Itoa(y)))
		}
	}
	for y, br := range b {
		ar, ok := a[y]
		if !ok {
			ops = append(ops, addOp("/mentor_params/"+strconv.Itoa(y)))
			continue
		}
		base := "/mentor_params/" + strconv.Itoa(y)
		ops = append(ops, diffCell(base+"/cpi_index", ar.CPIIndex, br.CPIIndex)...)
		ops = append(ops, diffCell(base+"/real_wage_index", ar.RealWageIndex, br.RealWageIndex)...)
		ops = append(ops, diffCell(base+"/avg_wage", ar.AvgWage, br.AvgWage)...)
		ops = append(ops, diffCell(base+"/account_indexation", ar.AccountIndexation, br.AccountIndexation)...)
		ops = append(ops, diffCell(base+"/subaccount_indexation", ar.SubaccountIndexation, br.SubaccountIndexation)...)
	}
	return ops
}

func diffCell(path string, a, b *float64) []model.TableChange {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return []model.TableChange{addOp(path)}
	case b == nil:
		return []model.TableChange{removeOp(path)}
	case *a != *b:
		return []model.TableChange{replaceOp(path)}
	}
	return nil
}

func addOp(path string) model.TableChange     { return model.TableChange{Op: "add", Path: path} }
func removeOp(path string) model.TableChange  { return model.TableChange{Op: "remove", Path: path} }
func replaceOp(path string) model.TableChange { return model.TableChange{Op: "replace", Path: path} }

// escapeKey escapes a key per RFC 6901: ~ → ~0, / → ~1.
func escapeKey(k string) string {
	k = strings.ReplaceAll(k, "~", "~0")
	k = strings.ReplaceAll(k, "/", "~1")
	return k
}
