package usagelog

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pension-forecast/internal/model"
)

var at = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func sample() (*model.SimulationRequest, *model.SimulationResult) {
	expected := 4000.0
	req := &model.SimulationRequest{
		Age: 28, Sex: "k", GrossSalary: 8500, StartYear: 2020,
		Balance:         &model.Balance{Account: 1200.5},
		ExpectedBenefit: &expected,
		LocaleTag:       "pl-PL",
	}
	res := &model.SimulationResult{Benefit: model.Benefit{Nominal: 3359.88, Real: 1029.99}}
	return req, res
}

func TestRecordWritesHeaderOnce(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "logs", "usage.csv"))
	req, res := sample()
	require.NoError(t, l.Record(req, res, at))
	require.NoError(t, l.Record(req, res, at.Add(time.Minute)))

	rows, err := l.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{
		"2025-03-14", "09:26:53", "4000.00", "28", "K", "8500.00",
		"true", "1200.50", "0.00", "3359.88", "1029.99", "pl-PL",
	}, rows[1])
	assert.Equal(t, "09:27:53", rows[2][1])
}

func TestRowsOfMissingLog(t *testing.T) {
	rows, err := New(filepath.Join(t.TempDir(), "none.csv")).Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, rows)
}

func TestConcurrentRecords(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "usage.csv"))
	req, res := sample()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(req, res, at))
		}()
	}
	wg.Wait()

	rows, err := l.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 21)
}

func TestExportXLSX(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "usage.csv"))
	req, res := sample()
	require.NoError(t, l.Record(req, res, at))

	data, err := l.ExportXLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "expected_benefit", rows[0][2])
	assert.Equal(t, "K", rows[1][4])

	typ, err := f.GetCellType(sheetName, "F2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}
