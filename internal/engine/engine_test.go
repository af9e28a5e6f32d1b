package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/logging"
)

func testDates(n int) []string {
	dates := make([]string, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-01-%02d", i+1)
	}
	return dates
}

func testDataset() analytics.Dataset {
	return analytics.Dataset{
		{Name: "Mine A", Values: analytics.Series{10, 10, 10, 10, 100}},
		{Name: "Mine B", Values: analytics.Series{1, 2, 3, 4, 5}},
	}
}

func newTestEngine() *Engine {
	return New(WithLogger(logging.NewNop()), WithParallelism(2))
}

func TestAnalyze_Basic(t *testing.T) {
	result, err := newTestEngine().Analyze(context.Background(), testDataset(), testDates(5), DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, testDates(5), result.Dates)
	require.Len(t, result.Mines, 2)
	assert.Equal(t, "Mine A", result.Mines[0].Name)
	assert.Equal(t, "Mine B", result.Mines[1].Name)

	a, ok := result.Mines.Get("Mine A")
	require.True(t, ok)
	require.Len(t, a.IQR, 1)
	assert.Equal(t, 4, a.IQR[0].Index)
	assert.Equal(t, 100.0, a.IQR[0].Value)
	require.Len(t, a.Grubbs, 1)
	assert.Equal(t, 4, a.Grubbs[0].Index)
	assert.InDelta(t, 28.0, a.Stats.Mean, 1e-12)
	assert.InDelta(t, 36.0, a.Stats.Std, 1e-9)
	assert.Equal(t, 10.0, a.Stats.Median)

	b, ok := result.Mines.Get("Mine B")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4, 5}, b.TrendValues, 1e-9)
	assert.InDelta(t, 1.0, b.Trend.Coefficients[1], 1e-9)
	assert.InDelta(t, 0.0, b.Trend.Coefficients[0], 1e-9)
	assert.Empty(t, b.IQR)
	assert.Empty(t, b.Z)

	assert.InDelta(t, 11.0, result.Total.Stats.Min, 1e-12)
	assert.InDelta(t, 105.0, result.Total.Stats.Max, 1e-12)
	assert.Len(t, result.Total.TrendValues, 5)
	assert.Equal(t, DefaultParams(), result.Params)
}

func TestAnalyze_JSONShape(t *testing.T) {
	dataset := analytics.Dataset{
		{Name: "Zeta", Values: analytics.Series{5, 5, 5}},
		{Name: "Alpha", Values: analytics.Series{1, 2, 3}},
	}

	result, err := newTestEngine().Analyze(context.Background(), dataset, testDates(3), DefaultParams())
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	body := string(data)

	// Series keep dataset order, not alphabetical order
	assert.Less(t, strings.Index(body, `"Zeta"`), strings.Index(body, `"Alpha"`))
	assert.NotContains(t, body, "null")
	assert.Contains(t, body, `"iqr":[]`)
	assert.Contains(t, body, `"trend_values":[`)
	assert.NotContains(t, body, `"id"`)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"dates", "mines", "total", "params"} {
		assert.Contains(t, decoded, key)
	}

	var roundTrip Result
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, []string{"Zeta", "Alpha"}, []string{roundTrip.Mines[0].Name, roundTrip.Mines[1].Name})
}

func TestAnalyze_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		dataset analytics.Dataset
		dates   []string
		params  func(p *Params)
		field   string
	}{
		{
			name: "unequal series lengths",
			dataset: analytics.Dataset{
				{Name: "A", Values: analytics.Series{1, 2, 3}},
				{Name: "B", Values: analytics.Series{1, 2}},
			},
			dates: testDates(3),
			field: "B",
		},
		{
			name:    "dates length mismatch",
			dataset: analytics.Dataset{{Name: "A", Values: analytics.Series{1, 2, 3}}},
			dates:   testDates(4),
			field:   "dates",
		},
		{
			name:    "empty dataset",
			dataset: analytics.Dataset{},
			dates:   nil,
			field:   "dataset",
		},
		{
			name: "duplicate series",
			dataset: analytics.Dataset{
				{Name: "A", Values: analytics.Series{1}},
				{Name: "A", Values: analytics.Series{2}},
			},
			dates: testDates(1),
			field: "dataset",
		},
		{
			name:    "non-finite value",
			dataset: analytics.Dataset{{Name: "A", Values: analytics.Series{1, math.NaN()}}},
			dates:   testDates(2),
			field:   "A",
		},
		{
			name:    "negative iqr_k",
			dataset: testDataset(),
			dates:   testDates(5),
			params:  func(p *Params) { p.IQRK = -1 },
			field:   "iqr_k",
		},
		{
			name:    "trend degree above range",
			dataset: testDataset(),
			dates:   testDates(5),
			params:  func(p *Params) { p.TrendDegree = 5 },
			field:   "trend_degree",
		},
		{
			name:    "ma window too small",
			dataset: testDataset(),
			dates:   testDates(5),
			params:  func(p *Params) { p.MAWindow = 1 },
			field:   "ma_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			if tt.params != nil {
				tt.params(&params)
			}

			result, err := newTestEngine().Analyze(context.Background(), tt.dataset, tt.dates, params)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAnalyze_EmptySeries(t *testing.T) {
	dataset := analytics.Dataset{{Name: "A", Values: analytics.Series{}}}

	result, err := newTestEngine().Analyze(context.Background(), dataset, []string{}, DefaultParams())
	require.NoError(t, err)

	a, _ := result.Mines.Get("A")
	assert.Empty(t, a.TrendValues)
	assert.Empty(t, a.Grubbs)
	assert.Equal(t, analytics.SeriesStats{}, a.Stats)
}

func TestAnalyze_DegreeClampWarns(t *testing.T) {
	var buf bytes.Buffer
	eng := New(WithLogger(logging.NewWithWriter(&buf, zerolog.WarnLevel)))

	dataset := analytics.Dataset{{Name: "A", Values: analytics.Series{3, 6}}}
	params := DefaultParams()
	params.TrendDegree = 4

	result, err := eng.Analyze(context.Background(), dataset, testDates(2), params)
	require.NoError(t, err)

	a, _ := result.Mines.Get("A")
	assert.True(t, a.Trend.Clamped)
	assert.Equal(t, 1, a.Trend.Degree)
	assert.InDeltaSlice(t, []float64{3, 6}, a.TrendValues, 1e-9)
	assert.Contains(t, buf.String(), "Trend degree clamped")
	assert.Contains(t, buf.String(), `"series":"A"`)
	assert.Contains(t, buf.String(), `"series":"Total"`)
}

func TestAnalyze_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestEngine().Analyze(ctx, testDataset(), testDates(5), DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestAnalyze_ParallelismDoesNotChangeResult(t *testing.T) {
	const series, points = 12, 60
	dataset := make(analytics.Dataset, series)
	for s := range dataset {
		values := make(analytics.Series, points)
		for i := range values {
			values[i] = 100 + 10*math.Sin(float64(i*(s+1))/7) + float64(i%5)
		}
		values[(s*7)%points] *= 3
		dataset[s] = analytics.NamedSeries{Name: fmt.Sprintf("Mine %02d", s), Values: values}
	}
	dates := testDates(points)

	serial, err := New(WithLogger(logging.NewNop()), WithParallelism(1)).Analyze(context.Background(), dataset, dates, DefaultParams())
	require.NoError(t, err)
	parallel, err := New(WithLogger(logging.NewNop()), WithParallelism(8)).Analyze(context.Background(), dataset, dates, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestAnalyze_DoesNotModifyInput(t *testing.T) {
	dataset := testDataset()
	before := []analytics.Series{dataset[0].Values.Clone(), dataset[1].Values.Clone()}

	_, err := newTestEngine().Analyze(context.Background(), dataset, testDates(5), DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, before[0], dataset[0].Values)
	assert.Equal(t, before[1], dataset[1].Values)
}

func TestAggregate(t *testing.T) {
	total, err := Aggregate(testDataset())
	require.NoError(t, err)
	assert.Equal(t, analytics.Series{11, 12, 13, 14, 105}, total)

	total, err = Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, total)

	_, err = Aggregate(analytics.Dataset{
		{Name: "A", Values: analytics.Series{1, 2}},
		{Name: "B", Values: analytics.Series{1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyze_OverflowIsInvalidInput(t *testing.T) {
	huge := func() analytics.Series { return analytics.Series{1e308, 1e308, 1, 2} }

	result, err := newTestEngine().Analyze(context.Background(), analytics.Dataset{
		{Name: "A", Values: huge()},
		{Name: "B", Values: huge()},
	}, testDates(4), DefaultParams())
	require.Error(t, err)
	assert.Nil(t, result)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, TotalName, verr.Field)
	assert.Contains(t, verr.Reason, "overflow")

	// A single series sums without overflow but its statistics do not
	result, err = newTestEngine().Analyze(context.Background(), analytics.Dataset{
		{Name: "A", Values: huge()},
	}, testDates(4), DefaultParams())
	require.Error(t, err)
	assert.Nil(t, result)
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, []string{"A", TotalName}, verr.Field)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyze_LargeFiniteValuesEncode(t *testing.T) {
	dataset := analytics.Dataset{
		{Name: "A", Values: analytics.Series{1e150, 2e150, 3e150, 4e150}},
		{Name: "B", Values: analytics.Series{1, 2, 3, 4}},
	}

	result, err := newTestEngine().Analyze(context.Background(), dataset, testDates(4), DefaultParams())
	require.NoError(t, err)

	_, err = json.Marshal(result)
	assert.NoError(t, err)
}

func TestAggregate_EqualsPointwiseSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(40)
		dataset := make(analytics.Dataset, 1+rng.Intn(6))
		for j := range dataset {
			values := make(analytics.Series, n)
			for i := range values {
				values[i] = math.Round(rng.NormFloat64()*1000) / 4
			}
			dataset[j] = analytics.NamedSeries{Name: fmt.Sprintf("M%d", j), Values: values}
		}

		total, err := Aggregate(dataset)
		require.NoError(t, err)
		require.Len(t, total, n)

		for i := 0; i < n; i++ {
			var want float64
			for _, s := range dataset {
				want += s.Values[i]
			}
			assert.Equal(t, want, total[i], "trial %d index %d", trial, i)
		}
	}
}

func TestResult_AnomalyCounts(t *testing.T) {
	result, err := newTestEngine().Analyze(context.Background(), testDataset(), testDates(5), DefaultParams())
	require.NoError(t, err)

	counts := result.AnomalyCounts()
	assert.Equal(t, 1, counts["iqr"])
	assert.Equal(t, 1, counts["grubbs"])
	assert.Equal(t, 0, counts["zscore"])
	assert.Len(t, counts, 4)
	assert.Equal(t, 5, result.Points())
}
