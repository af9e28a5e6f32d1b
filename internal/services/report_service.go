package services

import (
	"bytes"
	"context"
	"strings"

	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/report"
	"github.com/soltixdb/orelens/internal/utils"
)

// ReportService runs an analysis and renders it as HTML or PDF
type ReportService struct {
	logger   *logging.Logger
	analysis *AnalysisService
}

// NewReportService creates a new ReportService
func NewReportService(logger *logging.Logger, analysis *AnalysisService) *ReportService {
	if logger == nil {
		logger = logging.Global()
	}
	return &ReportService{logger: logger, analysis: analysis}
}

// Rendered is a finished report document
type Rendered struct {
	AnalysisID  string
	ContentType string
	Filename    string
	Body        []byte
}

// ParseReportFormat accepts html or pdf in any case; empty means html
func ParseReportFormat(s string) (utils.ReportFormat, error) {
	switch f := utils.ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return utils.ReportFormatHTML, nil
	case utils.ReportFormatHTML, utils.ReportFormatPDF:
		return f, nil
	default:
		return "", NewServiceErrorWithDetails(CodeUnsupportedFormat, "unsupported report format: "+s,
			map[string]interface{}{"supported": []string{string(utils.ReportFormatHTML), string(utils.ReportFormatPDF)}})
	}
}

// Render analyzes req and renders the result in format
func (s *ReportService) Render(ctx context.Context, req *AnalyzeRequest, format utils.ReportFormat) (*Rendered, error) {
	a, err := s.analysis.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	out := &Rendered{AnalysisID: a.Result.ID}
	switch format {
	case utils.ReportFormatPDF:
		err = report.RenderPDF(&buf, a.Result, a.Data)
		out.ContentType = "application/pdf"
	default:
		format = utils.ReportFormatHTML
		err = report.RenderHTML(&buf, a.Result, a.Data)
		out.ContentType = "text/html; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("Failed to render report", "analysis_id", a.Result.ID, "format", format, "error", err)
		return nil, &ServiceError{Code: CodeRenderFailed, Message: "failed to render report", Err: err}
	}

	out.Filename = "analysis-" + a.Result.ID + "." + string(format)
	out.Body = buf.Bytes()
	s.logger.Debug("Report rendered", "analysis_id", a.Result.ID, "format", format, "bytes", len(out.Body))
	return out, nil
}
