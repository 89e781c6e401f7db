// Package usagelog appends one CSV row per simulation and exports the whole
// log as an XLSX workbook.
package usagelog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"pension-forecast/internal/model"
)

var header = []string{
	"date", "time", "expected_benefit", "age", "sex", "salary",
	"included_sick_leave", "account", "sub_account",
	"benefit_nominal", "benefit_real", "locale_tag",
}

const sheetName = "usage"

// Log is an append-only CSV file. Appends are serialised.
type Log struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string {
	return l.path
}

// Record appends req and its result, writing the header when the file is new.
func (l *Log) Record(req *model.SimulationRequest, res *model.SimulationResult, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create usage log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open usage log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat usage log: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write usage log header: %w", err)
		}
	}
	if err := w.Write(row(req, res, at)); err != nil {
		return fmt.Errorf("write usage log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func row(req *model.SimulationRequest, res *model.SimulationResult, at time.Time) []string {
	expected := ""
	if req.ExpectedBenefit != nil {
		expected = money(*req.ExpectedBenefit)
	}
	return []string{
		at.Format("2006-01-02"),
		at.Format("15:04:05"),
		expected,
		strconv.Itoa(req.Age),
		req.NormalizedSex(),
		money(req.GrossSalary),
		strconv.FormatBool(req.SickLeaveIncluded()),
		money(req.AccountBalance()),
		money(req.SubAccountBalance()),
		money(res.Benefit.Nominal),
		money(res.Benefit.Real),
		req.LocaleTag,
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Rows returns every record in the log including the header. A missing file
// yields just the header.
func (l *Log) Rows() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return [][]string{header}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read usage log: %w", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse usage log: %w", err)
	}
	if len(rows) == 0 {
		return [][]string{header}, nil
	}
	return rows, nil
}

// ExportXLSX renders the log as a single-sheet workbook. Numeric columns are
// written as numbers.
func (l *Log) ExportXLSX() ([]byte, error) {
	rows, err := l.Rows()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	for i, r := range rows {
		cells := make([]any, len(r))
		for j, v := range r {
			cells[j] = cell(i, v)
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, ref, &cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(row int, v string) any {
	if row == 0 {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
