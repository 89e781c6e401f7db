package wages

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pension-forecast/internal/rates"
	"pension-forecast/internal/tables"
)

func ptr(v float64) *float64 { return &v }

func builder(snap *tables.Snapshot, backcast bool) *Builder {
	return NewBuilder(Config{AutoBackcast: backcast}, rates.New(rates.DefaultConfig(), snap), 2025)
}

func TestBuildCustomTimeline(t *testing.T) {
	custom := map[int]*float64{2020: ptr(5000), 2021: ptr(5200), 2022: ptr(5400), 2030: ptr(1)}
	tl, err := builder(nil, true).Build(8500, 2020, 2023, custom)
	require.NoError(t, err)
	assert.Equal(t, SourceCustom, tl.Source)
	assert.Equal(t, map[int]float64{2020: 5000, 2021: 5200, 2022: 5400}, tl.Wages)
	assert.Equal(t, []int{2020, 2021, 2022}, tl.Years())
}

func TestBuildCustomTimelineRejectsBadYears(t *testing.T) {
	custom := map[int]*float64{2020: ptr(5000), 2021: nil, 2023: ptr(-1), 2024: ptr(math.NaN())}
	_, err := builder(nil, true).Build(8500, 2020, 2025, custom)
	var inv *InvalidTimelineError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, []int{2021, 2022, 2023, 2024}, inv.Years)
	assert.Contains(t, err.Error(), "2021, 2022, 2023, 2024")
}

func TestBuildMentorPath(t *testing.T) {
	snap := tables.Empty()
	for y, w := range map[int]float64{2022: 6000, 2023: 7000, 2024: 8000, 2026: 9000, 2027: 10000} {
		snap.Mentor[y] = tables.MentorRow{AvgWage: ptr(w)}
	}
	// 2025 has no average wage, so 2024 anchors the salary.
	snap.Mentor[2025] = tables.MentorRow{CPIIndex: ptr(1.03)}

	tl, err := builder(snap, true).Build(8000, 2022, 2025, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceMentor, tl.Source)
	assert.Equal(t, 6000.0, tl.Wages[2022])
	assert.Equal(t, 7000.0, tl.Wages[2023])
	assert.Equal(t, 8000.0, tl.Wages[2024])

	b := builder(snap, true)
	assert.Equal(t, 10000.0, b.ProjectWage(8000, 2027, tl.Source))
}

func TestBuildFallsBackToFlatRateWhenPathIncomplete(t *testing.T) {
	snap := tables.Empty()
	snap.Mentor[2024] = tables.MentorRow{AvgWage: ptr(8000)}

	tl, err := builder(snap, true).Build(8500, 2023, 2027, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFlatRate, tl.Source)
	assert.InDelta(t, 8500/math.Pow(1.03, 2), tl.Wages[2023], 1e-9)
	assert.InDelta(t, 8500.0, tl.Wages[2025], 1e-9)
	assert.InDelta(t, 8500*1.03, tl.Wages[2026], 1e-9)
}

func TestBuildIgnoresMentorPathWhenBackcastDisabled(t *testing.T) {
	snap := tables.Empty()
	for y := 2020; y <= 2025; y++ {
		snap.Mentor[y] = tables.MentorRow{AvgWage: ptr(float64(y))}
	}
	tl, err := builder(snap, false).Build(8500, 2020, 2025, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceFlatRate, tl.Source)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, _ := builder(nil, true).Build(8500, 2000, 2060, nil)
	b, _ := builder(nil, true).Build(8500, 2000, 2060, nil)
	assert.Equal(t, a, b)
}

func TestProjectWageFlat(t *testing.T) {
	assert.InDelta(t, 8500*math.Pow(1.03, 40), builder(nil, true).ProjectWage(8500, 2065, SourceFlatRate), 1e-6)
}

func TestProjectWageFollowsFlatTimelineWhenPathIncomplete(t *testing.T) {
	snap := tables.Empty()
	snap.Mentor[2025] = tables.MentorRow{AvgWage: ptr(8000)}
	snap.Mentor[2065] = tables.MentorRow{AvgWage: ptr(40000)}
	b := builder(snap, true)

	tl, err := b.Build(8500, 2020, 2065, nil)
	require.NoError(t, err)
	require.Equal(t, SourceFlatRate, tl.Source)
	assert.InDelta(t, 8500*math.Pow(1.03, 40), b.ProjectWage(8500, 2065, tl.Source), 1e-6)
	assert.Equal(t, 42500.0, b.ProjectWage(8500, 2065, SourceMentor))
}

func TestProjectWageCustomTimelineUsesFlatRate(t *testing.T) {
	snap := tables.Empty()
	snap.Mentor[2025] = tables.MentorRow{AvgWage: ptr(8000)}
	snap.Mentor[2030] = tables.MentorRow{AvgWage: ptr(16000)}
	assert.InDelta(t, 8500*math.Pow(1.03, 5), builder(snap, true).ProjectWage(8500, 2030, SourceCustom), 1e-9)
}
