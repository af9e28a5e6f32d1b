package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	m := New()

	m.ObserveAnalysis(OutcomeSuccess, 20*time.Millisecond, map[string]int{"iqr": 2, "grubbs": 1})
	m.ObserveAnalysis(OutcomeSuccess, 10*time.Millisecond, map[string]int{"iqr": 1})
	m.ObserveAnalysis(OutcomeInvalid, 0, map[string]int{"iqr": 100})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.anomalies.WithLabelValues("iqr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.anomalies.WithLabelValues("grubbs")))
}

func TestCounters(t *testing.T) {
	m := New()

	m.SourceError()
	m.EventPublished(nil)
	m.EventPublished(errors.New("broker down"))
	m.EventPublished(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(OutcomeError)))
}

func TestFiberMiddlewareAndHandler(t *testing.T) {
	m := New()

	app := fiber.New()
	app.Use(m.FiberMiddleware())
	app.Get("/v1/detectors", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "down") })
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	for _, path := range []string{"/v1/detectors", "/v1/detectors", "/fail"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/v1/detectors", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/fail", "502")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "orelens_http_requests_total"))
}
