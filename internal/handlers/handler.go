// Package handlers implements the HTTP endpoints on top of the services.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/models"
	"github.com/soltixdb/orelens/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger   *logging.Logger
	analysis *services.AnalysisService
	reports  *services.ReportService
	sourceID string
}

// New creates a new handler instance
func New(logger *logging.Logger, analysis *services.AnalysisService, reports *services.ReportService, sourceID string) *Handler {
	return &Handler{
		logger:   logger,
		analysis: analysis,
		reports:  reports,
		sourceID: sourceID,
	}
}

// statusFor maps service error codes to HTTP status codes
func statusFor(code string) int {
	switch code {
	case services.CodeInvalidInput, services.CodeUnsupportedFormat:
		return fiber.StatusBadRequest
	case services.CodeSourceUnavailable, services.CodeSourceMalformed:
		return fiber.StatusBadGateway
	case services.CodeCanceled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// serviceError writes err as an ErrorResponse; non-service errors go to the
// app's error handler
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		return err
	}

	return c.Status(statusFor(se.Code)).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:      se.Code,
			Message:   se.Message,
			Path:      c.Path(),
			RequestID: logging.RequestID(c.UserContext()),
			Details:   se.Details,
		},
	})
}
