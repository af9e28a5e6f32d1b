// Package engine runs the anomaly detectors, the trend fitter and the series
// statistics over a dataset and its aggregate, producing a Result.
package engine

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/analytics/trend"
	"github.com/soltixdb/orelens/internal/logging"
)

// DefaultParallelism bounds concurrent series analysis when unset
const DefaultParallelism = 4

// Engine is stateless apart from its settings and safe for concurrent use
type Engine struct {
	logger      *logging.Logger
	parallelism int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for degree-clamping warnings
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithParallelism bounds how many series are analyzed at once
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an Engine
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      logging.Global(),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze validates the input and analyzes every named series and their
// point-wise Total. Either the complete result or an error is returned.
func (e *Engine) Analyze(ctx context.Context, dataset analytics.Dataset, dates []string, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := validateDataset(dataset, dates); err != nil {
		return nil, err
	}

	total, err := Aggregate(dataset)
	if err != nil {
		return nil, err
	}
	for _, v := range total {
		if math.IsInf(v, 0) {
			return nil, invalid(TotalName, overflowReason)
		}
	}

	mines := make(SeriesAnalyses, len(dataset))
	var totalAnalysis SeriesAnalysis

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, s := range dataset {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := e.analyzeSeries(s.Name, s.Values, params)
			if err != nil {
				return err
			}
			mines[i] = NamedAnalysis{Name: s.Name, Analysis: a}
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		a, err := e.analyzeSeries(TotalName, total, params)
		if err != nil {
			return err
		}
		totalAnalysis = a
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Dates:  append([]string{}, dates...),
		Mines:  mines,
		Total:  totalAnalysis,
		Params: params,
	}, nil
}

// analyzeSeries runs the four detectors, the trend fitter and the statistics
// on a single series
func (e *Engine) analyzeSeries(name string, values []float64, params Params) (SeriesAnalysis, error) {
	configs := map[string]anomaly.DetectorConfig{
		anomaly.DetectorIQR:    {Threshold: params.IQRK},
		anomaly.DetectorZScore: {Threshold: params.ZThresh},
		anomaly.DetectorMAPct:  {Threshold: params.MAPct, WindowSize: params.MAWindow},
		anomaly.DetectorGrubbs: {Threshold: params.GrubbsAlpha},
	}

	var out SeriesAnalysis
	for _, detector := range Detectors {
		flags, err := anomaly.DetectAnomalies(detector, values, configs[detector])
		if err != nil {
			return SeriesAnalysis{}, err
		}
		out.setFlags(detector, flags)
	}

	fit, err := trend.FitPolynomial(values, params.TrendDegree)
	if err != nil {
		return SeriesAnalysis{}, fmt.Errorf("trend for %s: %w", name, err)
	}
	if fit.Model.Clamped {
		e.logger.Warn("Trend degree clamped to series length",
			"series", name,
			"requested_degree", fit.Model.RequestedDegree,
			"degree", fit.Model.Degree,
			"points", len(values))
	}

	out.TrendValues = fit.Fitted
	out.Trend = fit.Model
	out.Stats = analytics.Summarize(values)
	if !out.finite() {
		return SeriesAnalysis{}, invalid(name, overflowReason)
	}
	return out, nil
}

// overflowReason is the reason given when finite input overflows the analysis
const overflowReason = "values overflow float64 arithmetic"

func validateDataset(dataset analytics.Dataset, dates []string) error {
	if len(dataset) == 0 {
		return invalid("dataset", "contains no series")
	}

	n := len(dataset[0].Values)
	seen := make(map[string]struct{}, len(dataset))
	for _, s := range dataset {
		if s.Name == "" {
			return invalid("dataset", "series name cannot be empty")
		}
		if _, dup := seen[s.Name]; dup {
			return invalidf("dataset", "duplicate series %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if len(s.Values) != n {
			return invalidf(s.Name, "has %d values but %q has %d", len(s.Values), dataset[0].Name, n)
		}
		for i, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidf(s.Name, "value at index %d is not a finite number", i)
			}
		}
	}

	if len(dates) != n {
		return invalidf("dates", "has %d labels but the series have %d values", len(dates), n)
	}
	return nil
}
