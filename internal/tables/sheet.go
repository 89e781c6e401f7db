package tables

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readRows returns the cell grid of the first worksheet of an .xlsx document,
// or of a CSV document (comma or semicolon separated).
func readRows(data []byte, ext string) ([][]string, error) {
	switch ext {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, errors.New("workbook has no sheets")
		}
		return f.GetRows(sheet)
	case ".csv", ".txt":
		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
			r.Comma = ';'
		}
		return r.ReadAll()
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", ext)
	}
}

type mentorField int

const (
	fieldYear mentorField = iota
	fieldSubaccount
	fieldAccount
	fieldCPI
	fieldRealWage
	fieldAvgWage
)

// Matching order matters: the sub-account column must be claimed before the
// account needles see it.
var mentorNeedles = []struct {
	field   mentorField
	needles []string
}{
	{fieldYear, []string{"year", "rok"}},
	{fieldSubaccount, []string{"subaccount", "sub_account", "sub-account", "sub account", "subkont"}},
	{fieldAccount, []string{"account", "konto", "kont"}},
	{fieldCPI, []string{"cpi", "inflation", "inflac"}},
	{fieldRealWage, []string{"real_wage", "real wage", "realn"}},
	{fieldAvgWage, []string{"avg_wage", "avg wage", "average_wage", "average wage", "przeci"}},
}

// matchHeader maps mentor fields to column indexes using case-insensitive
// substring matching. Each column is claimed at most once.
func matchHeader(header []string) map[mentorField]int {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	claimed := make(map[int]bool)
	cols := make(map[mentorField]int)
	for _, n := range mentorNeedles {
		for i, h := range lower {
			if claimed[i] || h == "" {
				continue
			}
			if containsAny(h, n.needles) {
				cols[n.field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// ParseMentorParams reads a mentor parameter sheet. The header row is the
// first row with a recognisable year column; rows before it are skipped.
func ParseMentorParams(rows [][]string) (MentorParams, error) {
	headerIdx := -1
	var cols map[mentorField]int
	for i, row := range rows {
		c := matchHeader(row)
		if _, ok := c[fieldYear]; ok {
			headerIdx, cols = i, c
			break
		}
	}
	if headerIdx < 0 {
		return nil, errors.New("mentor sheet: no year column")
	}

	out := MentorParams{}
	for _, row := range rows[headerIdx+1:] {
		year, ok := parseYear(cell(row, cols[fieldYear]))
		if !ok {
			continue
		}
		r := MentorRow{
			CPIIndex:             optionalNumber(row, cols, fieldCPI),
			RealWageIndex:        optionalNumber(row, cols, fieldRealWage),
			AvgWage:              optionalNumber(row, cols, fieldAvgWage),
			AccountIndexation:    optionalNumber(row, cols, fieldAccount),
			SubaccountIndexation: optionalNumber(row, cols, fieldSubaccount),
		}
		if r.empty() {
			continue
		}
		out[year] = r
	}
	return out, nil
}

// ParseAverageBenefit reads a two-column (year, amount) sheet. Rows that do
// not parse, such as headers, are skipped.
func ParseAverageBenefit(rows [][]string) map[int]float64 {
	out := make(map[int]float64)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		year, ok := parseYear(row[0])
		if !ok {
			continue
		}
		v, ok := parseNumber(row[1])
		if !ok || v <= 0 {
			continue
		}
		out[year] = v
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func optionalNumber(row []string, cols map[mentorField]int, f mentorField) *float64 {
	idx, ok := cols[f]
	if !ok {
		return nil
	}
	v, ok := parseNumber(cell(row, idx))
	if !ok {
		return nil
	}
	return &v
}

func parseYear(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok || v != math.Trunc(v) || v < 1900 || v > 2200 {
		return 0, false
	}
	return int(v), true
}

// parseNumber accepts "1 234,56", "1234.56" and "1,234.56".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "%", "").Replace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
