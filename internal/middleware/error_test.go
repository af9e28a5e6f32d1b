package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/models"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"bad request", fiber.ErrBadRequest, fiber.StatusBadRequest, "BAD_REQUEST", "Bad Request"},
		{"custom fiber error", fiber.NewError(fiber.StatusRequestEntityTooLarge, "body too large"), fiber.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE", "body too large"},
		{"plain error hides message", errors.New("database password leaked"), fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
			app.Get("/boom", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
			assert.Equal(t, "/boom", body.Error.Path)
		})
	}
}

func TestErrorHandler_RequestID(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Use(logging.FiberMiddleware(logging.NewNop(), logging.DefaultMiddlewareConfig()))
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrBadGateway })

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(logging.RequestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "req-42", body.Error.RequestID)
	assert.Equal(t, "BAD_GATEWAY", body.Error.Code)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", statusCode(404))
	assert.Equal(t, "ERROR", statusCode(599))
}
