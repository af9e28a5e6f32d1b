package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/metrics"
	"github.com/soltixdb/orelens/internal/queue"
	"github.com/soltixdb/orelens/internal/source"
	"github.com/soltixdb/orelens/internal/utils"
)

// AnalysisService loads datasets and runs analyses
type AnalysisService struct {
	logger    *logging.Logger
	source    source.Source
	engine    *engine.Engine
	publisher queue.Publisher
	metrics   *metrics.Metrics
	defaults  engine.Params
	subject   string
}

// AnalysisServiceConfig holds the non-dependency settings of AnalysisService
type AnalysisServiceConfig struct {
	Defaults     engine.Params // Params used for fields a request omits
	EventSubject string        // Subject for AnalysisCompleted events
}

// NewAnalysisService creates a new AnalysisService. publisher and m may be nil.
func NewAnalysisService(
	logger *logging.Logger,
	src source.Source,
	eng *engine.Engine,
	publisher queue.Publisher,
	m *metrics.Metrics,
	cfg AnalysisServiceConfig,
) *AnalysisService {
	if logger == nil {
		logger = logging.Global()
	}
	return &AnalysisService{
		logger:    logger,
		source:    src,
		engine:    eng,
		publisher: publisher,
		metrics:   m,
		defaults:  cfg.Defaults,
		subject:   cfg.EventSubject,
	}
}

// AnalyzeRequest carries optional parameter overrides and an optional inline
// dataset. Without Data the configured source is used.
type AnalyzeRequest struct {
	Params *engine.ParamOverrides `json:"params,omitempty"`
	Data   *analytics.Frame       `json:"data,omitempty"`
}

// Analysis is a finished analysis together with the data it ran on
type Analysis struct {
	Result *engine.Result
	Data   analytics.Dataset
	Source string
}

// Defaults returns the parameters applied when a request omits them
func (s *AnalysisService) Defaults() engine.Params {
	return s.defaults
}

// Data loads the current dataset from the configured source
func (s *AnalysisService) Data(ctx context.Context) (*analytics.Frame, error) {
	if s.source == nil {
		return nil, NewServiceError(CodeSourceUnavailable, "no data source configured")
	}

	ctx, cancel := context.WithTimeout(ctx, utils.SourceFetchTimeout)
	defer cancel()

	frame, err := s.source.Fetch(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SourceError()
		}
		s.logger.Error("Failed to load dataset", "source", s.source.ID(), "error", err)
		return nil, classify(err)
	}
	return frame, nil
}

// Analyze runs the analysis described by req
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalyzeRequest) (*engine.Result, error) {
	a, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.Result, nil
}

func (s *AnalysisService) run(ctx context.Context, req *AnalyzeRequest) (*Analysis, error) {
	if req == nil {
		req = &AnalyzeRequest{}
	}
	start := time.Now()

	params, err := req.Params.Apply(s.defaults)
	if err != nil {
		s.observe(metrics.OutcomeInvalid, 0, nil)
		return nil, classify(err)
	}

	frame, origin := req.Data, "request"
	if frame == nil {
		if frame, err = s.Data(ctx); err != nil {
			s.observe(metrics.OutcomeError, 0, nil)
			return nil, err
		}
		origin = s.source.ID()
	}

	dates := frame.Dates
	if len(dates) == 0 && len(frame.Mines) > 0 {
		dates = positionLabels(len(frame.Mines[0].Values))
	}

	result, err := s.engine.Analyze(ctx, frame.Mines, dates, params)
	if err != nil {
		se := classify(err)
		outcome := metrics.OutcomeError
		if se.Code == CodeInvalidInput {
			outcome = metrics.OutcomeInvalid
		}
		s.observe(outcome, 0, nil)
		s.logger.Warn("Analysis rejected", "code", se.Code, "error", err)
		return nil, se
	}
	result.ID = uuid.NewString()

	elapsed := time.Since(start)
	counts := result.AnomalyCounts()
	s.observe(metrics.OutcomeSuccess, elapsed, counts)

	s.logger.Info("Analysis completed",
		"analysis_id", result.ID,
		"source", origin,
		"series", len(result.Mines),
		"points", result.Points(),
		"anomalies", counts,
		"latency_ms", elapsed.Milliseconds())

	s.publish(ctx, result, origin, elapsed)

	return &Analysis{Result: result, Data: frame.Mines, Source: origin}, nil
}

func (s *AnalysisService) observe(outcome string, elapsed time.Duration, counts map[string]int) {
	if s.metrics != nil {
		s.metrics.ObserveAnalysis(outcome, elapsed, counts)
	}
}

// publish emits AnalysisCompleted; failures are logged only
func (s *AnalysisService) publish(ctx context.Context, result *engine.Result, origin string, elapsed time.Duration) {
	if s.publisher == nil || s.subject == "" {
		return
	}

	names := make([]string, len(result.Mines))
	for i := range result.Mines {
		names[i] = result.Mines[i].Name
	}
	event := queue.AnalysisCompleted{
		ID:             result.ID,
		Source:         origin,
		Series:         names,
		Points:         result.Points(),
		AnomalyCounts:  result.AnomalyCounts(),
		DurationMillis: elapsed.Milliseconds(),
		CompletedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), utils.EventPublishTimeout)
	defer cancel()

	err := queue.PublishEvent(ctx, s.publisher, s.subject, event)
	if s.metrics != nil {
		s.metrics.EventPublished(err)
	}
	if err != nil {
		s.logger.Warn("Failed to publish analysis event",
			"analysis_id", result.ID,
			"subject", s.subject,
			"error", err)
	}
}

// positionLabels labels points 0..n-1 when a request carries no dates
func positionLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
