package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/domain"
)

const namespace = "storefront"

// Checkout outcomes.
const (
	OutcomeSuccess           = "success"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalidInput      = "invalid_input"
	OutcomeError             = "error"
)

// Metrics owns its registry so several apps (tests) can coexist in one
// process. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	Checkouts      *prometheus.CounterVec
	StatusChanges  *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDurations  *prometheus.HistogramVec
	StockDecrement prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "checkouts_total",
			Help: "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_status_changes_total",
			Help: "Applied order status transitions by target status.",
		}, []string{"to"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StockDecrement: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_units_sold_total",
			Help: "Units removed from stock by committed checkouts.",
		}),
	}
	reg.MustRegister(
		m.Checkouts, m.StatusChanges, m.HTTPRequests, m.HTTPDurations, m.StockDecrement,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Outcome labels a checkout result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrEmptyCart):
		return OutcomeEmptyCart
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalidInput
	default:
		return OutcomeError
	}
}

func (m *Metrics) ObserveCheckout(err error, units int) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		m.StockDecrement.Add(float64(units))
	}
}

func (m *Metrics) ObserveStatusChange(to domain.OrderStatus) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(string(to)).Inc()
}

// Middleware records request count and latency. The route label is the
// matched route template, so ids do not blow up cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPDurations.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg}))
}
