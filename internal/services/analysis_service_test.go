package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/metrics"
	"github.com/soltixdb/orelens/internal/queue"
	"github.com/soltixdb/orelens/internal/source"
	"github.com/soltixdb/orelens/internal/utils"
)

const testSubject = "orelens.analysis.completed"

type stubSource struct {
	frame *analytics.Frame
	err   error
}

func (s *stubSource) ID() string { return "stub" }

func (s *stubSource) Fetch(context.Context) (*analytics.Frame, error) {
	return s.frame, s.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) error { return errors.New("broker down") }
func (failingPublisher) Close() error                                 { return nil }

func testFrame() *analytics.Frame {
	dates := make([]string, 12)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-03-%02d", i+1)
	}
	return &analytics.Frame{
		Dates: dates,
		Mines: analytics.Dataset{
			{Name: "North", Values: analytics.Series{10, 11, 9, 10, 10, 11, 9, 10, 10, 11, 9, 60}},
			{Name: "South", Values: analytics.Series{20, 21, 19, 20, 20, 21, 19, 20, 20, 21, 19, 20}},
		},
	}
}

func newTestService(src source.Source, pub queue.Publisher, m *metrics.Metrics) *AnalysisService {
	return NewAnalysisService(
		logging.NewNop(),
		src,
		engine.New(engine.WithLogger(logging.NewNop())),
		pub,
		m,
		AnalysisServiceConfig{Defaults: engine.DefaultParams(), EventSubject: testSubject},
	)
}

func ptr(v float64) *float64 { return &v }

func TestAnalysisService_AnalyzeFromSource(t *testing.T) {
	pub := queue.NewMemoryPublisher()
	m := metrics.New()
	svc := newTestService(&stubSource{frame: testFrame()}, pub, m)

	result, err := svc.Analyze(context.Background(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, engine.DefaultParams(), result.Params)
	assert.Equal(t, []string{"North", "South"}, []string{result.Mines[0].Name, result.Mines[1].Name})
	assert.Equal(t, 12, result.Points())

	north, ok := result.Mines.Get("North")
	require.True(t, ok)
	require.NotEmpty(t, north.IQR)
	assert.Equal(t, 11, north.IQR[0].Index)

	msgs := pub.Published(testSubject)
	require.Len(t, msgs, 1)
	var event queue.AnalysisCompleted
	require.NoError(t, json.Unmarshal(msgs[0], &event))
	assert.Equal(t, result.ID, event.ID)
	assert.Equal(t, "stub", event.Source)
	assert.Equal(t, []string{"North", "South"}, event.Series)
	assert.Equal(t, result.AnomalyCounts(), event.AnomalyCounts)

	assert.Equal(t, 1.0, counterValue(t, m, "orelens_analyses_total", metrics.OutcomeSuccess))
	assert.Equal(t, 1.0, counterValue(t, m, "orelens_events_published_total", metrics.OutcomeSuccess))
}

// counterValue reads one labelled counter from the registry
func counterValue(t *testing.T, m *metrics.Metrics, name, outcome string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestAnalysisService_InlineDataAndOverrides(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	frame := testFrame()
	frame.Dates = nil

	result, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Params: &engine.ParamOverrides{ZThresh: ptr(2), TrendDegree: ptr(2)},
		Data:   frame,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, result.Params.ZThresh)
	assert.Equal(t, 2, result.Params.TrendDegree)
	assert.Equal(t, 1.5, result.Params.IQRK)
	assert.Equal(t, "0", result.Dates[0])
	assert.Equal(t, "11", result.Dates[11])
	assert.Len(t, result.Total.TrendValues, 12)
}

func TestAnalysisService_InvalidParams(t *testing.T) {
	m := metrics.New()
	pub := queue.NewMemoryPublisher()
	svc := newTestService(&stubSource{frame: testFrame()}, pub, m)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Params: &engine.ParamOverrides{MAWindow: ptr(2.5)},
	})

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeInvalidInput, se.Code)
	assert.Equal(t, "ma_window", se.Details["field"])
	assert.Empty(t, pub.Published(testSubject))
	assert.Equal(t, 1.0, counterValue(t, m, "orelens_analyses_total", metrics.OutcomeInvalid))
}

func TestAnalysisService_InvalidDataset(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.Analyze(context.Background(), &AnalyzeRequest{
		Data: &analytics.Frame{
			Dates: []string{"a", "b"},
			Mines: analytics.Dataset{
				{Name: "A", Values: analytics.Series{1, 2}},
				{Name: "B", Values: analytics.Series{1}},
			},
		},
	})

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeInvalidInput, se.Code)
	assert.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestAnalysisService_SourceFailure(t *testing.T) {
	m := metrics.New()
	svc := newTestService(&stubSource{err: fmt.Errorf("%w: connection refused", source.ErrUnavailable)}, nil, m)

	_, err := svc.Analyze(context.Background(), nil)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeSourceUnavailable, se.Code)
	assert.Equal(t, 1.0, counterValue(t, m, "orelens_analyses_total", metrics.OutcomeError))

	_, err = newTestService(nil, nil, nil).Data(context.Background())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeSourceUnavailable, se.Code)
}

func TestAnalysisService_PublishFailureIsNotFatal(t *testing.T) {
	m := metrics.New()
	svc := newTestService(&stubSource{frame: testFrame()}, failingPublisher{}, m)

	result, err := svc.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1.0, counterValue(t, m, "orelens_events_published_total", metrics.OutcomeError))
}

func TestAnalysisService_Data(t *testing.T) {
	svc := newTestService(&stubSource{frame: testFrame()}, nil, nil)

	frame, err := svc.Data(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, frame.Mines.Names())
	assert.Equal(t, engine.DefaultParams(), svc.Defaults())
}

func TestParseReportFormat(t *testing.T) {
	for in, want := range map[string]utils.ReportFormat{"": utils.ReportFormatHTML, "HTML": utils.ReportFormatHTML, " pdf ": utils.ReportFormatPDF} {
		got, err := ParseReportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseReportFormat("docx")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeUnsupportedFormat, se.Code)
}

func TestReportService_Render(t *testing.T) {
	svc := newTestService(&stubSource{frame: testFrame()}, nil, nil)
	reports := NewReportService(logging.NewNop(), svc)

	html, err := reports.Render(context.Background(), nil, utils.ReportFormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", html.ContentType)
	assert.Contains(t, string(html.Body), "North")
	assert.Equal(t, "analysis-"+html.AnalysisID+".html", html.Filename)

	pdf, err := reports.Render(context.Background(), nil, utils.ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "%PDF-", string(pdf.Body[:5]))
	assert.NotEqual(t, html.AnalysisID, pdf.AnalysisID)
}

func TestReportService_InvalidInput(t *testing.T) {
	reports := NewReportService(logging.NewNop(), newTestService(nil, nil, nil))

	_, err := reports.Render(context.Background(), &AnalyzeRequest{
		Params: &engine.ParamOverrides{GrubbsAlpha: ptr(1)},
		Data:   testFrame(),
	}, utils.ReportFormatPDF)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeInvalidInput, se.Code)
}
