package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/models"
	"github.com/soltixdb/orelens/internal/services"
	"github.com/soltixdb/orelens/internal/utils"
)

// Data returns the current dataset from the configured source
// GET /v1/data
func (h *Handler) Data(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	frame, err := h.analysis.Data(ctx)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(frame)
}

// Analyze runs the full analysis
// POST /v1/analyze  {"params": {...}?, "data": {"dates": [...], "mines": {...}}?}
func (h *Handler) Analyze(c *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	result, err := h.analysis.Analyze(ctx, req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(result)
}

// Report runs the analysis and returns it as an HTML page or PDF document
// POST /v1/report?format=html|pdf
func (h *Handler) Report(c *fiber.Ctx) error {
	format, err := services.ParseReportFormat(c.Query("format"))
	if err != nil {
		return h.serviceError(c, err)
	}

	req, err := parseAnalyzeRequest(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	doc, err := h.reports.Render(ctx, req, format)
	if err != nil {
		return h.serviceError(c, err)
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	if format == utils.ReportFormatPDF {
		c.Attachment(doc.Filename)
	}
	c.Set("X-Analysis-ID", doc.AnalysisID)
	return c.Send(doc.Body)
}

// Detectors lists the registered anomaly detectors
// GET /v1/detectors
func (h *Handler) Detectors(c *fiber.Ctx) error {
	return c.JSON(models.DetectorsResponse{Detectors: anomaly.ListDetectors()})
}

// parseAnalyzeRequest decodes the optional body; an empty body means defaults
// and the configured source
func parseAnalyzeRequest(c *fiber.Ctx) (*services.AnalyzeRequest, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, nil
	}

	var req services.AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to parse JSON body: "+err.Error())
	}
	return &req, nil
}
