package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
)

func TestMetrics_LlamadasYTotales(t *testing.T) {
	m := metrics.New()

	m.ObserveCall("registerProduct", "ok", 3*time.Millisecond)
	m.ObserveCall("registerProduct", "rejected", time.Millisecond)
	m.ObserveCall("registerProduct", "ok", time.Millisecond)
	m.SetLedgerTotals(7, 12)
	m.EventPublished("ProductRegistered")
	m.EventDropped("ProductRegistered")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("registerProduct", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("registerProduct", "rejected")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Products))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.Transactions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("ProductRegistered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped.WithLabelValues("ProductRegistered")))
}

func TestMetrics_CheckpointConservaSoloLaUltimaRaiz(t *testing.T) {
	m := metrics.New()
	m.Checkpoint("0xaa", time.Unix(100, 0))
	m.Checkpoint("0xbb", time.Unix(200, 0))

	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckpointInfo))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckpointInfo.WithLabelValues("0xbb")))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.CheckpointTimestamp))
}

func TestMetrics_MiddlewareYHandler(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/metrics", m.Handler())

	for _, id := range []string{"1", "2"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+id, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "204")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/items/:id",status="204"} 2`)
}
