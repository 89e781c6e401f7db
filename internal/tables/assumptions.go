package tables

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type assumptionsFile struct {
	AnnualIndexation    map[string]float64 `json:"annual_indexation" yaml:"annual_indexation"`
	QuarterlyIndexation map[string]float64 `json:"quarterly_indexation" yaml:"quarterly_indexation"`
	SickLeaveDays       map[string]float64 `json:"sick_leave_days" yaml:"sick_leave_days"`
	DelayScenarios      map[string]float64 `json:"delay_scenarios" yaml:"delay_scenarios"`
	AverageBenefit      map[string]float64 `json:"average_benefit" yaml:"average_benefit"`
}

// ParseAssumptions decodes an assumptions document. ext selects the format:
// ".yaml"/".yml" use YAML, anything else JSON. Keys that are not valid years or
// quarters are reported as an error after the whole document is read.
func ParseAssumptions(data []byte, ext string) (AssumptionsTable, error) {
	var raw assumptionsFile
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return Empty().Assumptions, fmt.Errorf("decode assumptions: %w", err)
	}

	t := Empty().Assumptions
	var bad []string

	for k, v := range raw.AnnualIndexation {
		y, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			bad = append(bad, "annual_indexation/"+k)
			continue
		}
		t.AnnualIndexation[y] = normalizeFactor(v)
	}
	for k, v := range raw.QuarterlyIndexation {
		q, ok := ParseQuarter(k)
		if !ok {
			bad = append(bad, "quarterly_indexation/"+k)
			continue
		}
		t.QuarterlyIndexation[q] = normalizeFactor(v)
	}
	for k, v := range raw.SickLeaveDays {
		t.SickLeaveDays[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	for k, v := range raw.DelayScenarios {
		t.DelayScenarios[strings.TrimSpace(k)] = v
	}
	for k, v := range raw.AverageBenefit {
		y, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			bad = append(bad, "average_benefit/"+k)
			continue
		}
		t.AverageBenefit[y] = v
	}

	if len(bad) > 0 {
		return t, &InvalidKeysError{Keys: bad}
	}
	return t, nil
}

// InvalidKeysError lists assumption keys that were skipped; the rest of the
// document was loaded.
type InvalidKeysError struct {
	Keys []string
}

func (e *InvalidKeysError) Error() string {
	return "invalid assumption keys: " + strings.Join(e.Keys, ", ")
}
