package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.RecordRequest("/", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.RecordError("/add_ticket", http.MethodPost, "FORBIDDEN")
	m.RecordTicketEvent("ticket_created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/add_ticket", http.MethodPost, "FORBIDDEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketEvents.WithLabelValues("ticket_created")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
		m.RecordTicketEvent("ticket_deleted")
	})
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetrics()
	m.RecordTicketEvent("ticket_deleted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `helpdesk_tickets_events_total{event="ticket_deleted"} 1`)
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tickets/7", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, strings.TrimSpace(string(body)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/tickets/:id", http.MethodGet, "200")))
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), nil))
	app.Get("/", func(c *fiber.Ctx) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestRequestLoggerRecordsHandlerErrorStatus(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/boom", http.MethodGet, "418")))
}
