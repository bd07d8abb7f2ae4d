// Package metrics: colectores Prometheus del ledger y de la capa HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// Metrics registro propio con todos los colectores.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec

	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	Products     prometheus.Gauge
	Transactions prometheus.Gauge

	CheckpointInfo      *prometheus.GaugeVec
	CheckpointTimestamp prometheus.Gauge
}

// New crea y registra los colectores, incluidos los de proceso y runtime de Go.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Llamadas al ledger por resultado (ok, rejected, error)",
			},
			[]string{"call", "outcome"},
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Duración de las llamadas al ledger, incluida la espera en cola",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"call"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Eventos publicados en el broker",
			},
			[]string{"event"},
		),
		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Entregas descartadas por suscriptores lentos",
			},
			[]string{"event"},
		),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "products",
			Help:      "Productos registrados",
		}),
		Transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Transacciones registradas",
		}),
		CheckpointInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "checkpoint_info",
				Help:      "Raíz de estado del último checkpoint (valor siempre 1)",
			},
			[]string{"state_root"},
		),
		CheckpointTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_timestamp_seconds",
			Help:      "Momento del último checkpoint",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.CallsTotal, m.CallDuration,
		m.EventsPublished, m.EventsDropped,
		m.Products, m.Transactions,
		m.CheckpointInfo, m.CheckpointTimestamp,
	)
	return m
}

// ObserveCall cuenta una llamada y su duración.
func (m *Metrics) ObserveCall(call, outcome string, d time.Duration) {
	m.CallsTotal.WithLabelValues(call, outcome).Inc()
	m.CallDuration.WithLabelValues(call).Observe(d.Seconds())
}

// SetLedgerTotals actualiza los contadores del ledger.
func (m *Metrics) SetLedgerTotals(products, transactions uint64) {
	m.Products.Set(float64(products))
	m.Transactions.Set(float64(transactions))
}

func (m *Metrics) EventPublished(name string) { m.EventsPublished.WithLabelValues(name).Inc() }
func (m *Metrics) EventDropped(name string)   { m.EventsDropped.WithLabelValues(name).Inc() }

// Checkpoint deja solo la raíz más reciente en CheckpointInfo.
func (m *Metrics) Checkpoint(stateRoot string, at time.Time) {
	m.CheckpointInfo.Reset()
	m.CheckpointInfo.WithLabelValues(stateRoot).Set(1)
	m.CheckpointTimestamp.Set(float64(at.Unix()))
}

// Middleware cuenta peticiones HTTP por ruta registrada (no por URL, para acotar la cardinalidad).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		if path == "" {
			path = "undefined"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
		return err
	}
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
