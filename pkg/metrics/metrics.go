// Package metrics holds the Prometheus instrumentation for the storefront API.
//
//	app.Use(metrics.Middleware())
//	app.Get("/metrics", metrics.Handler())
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

var (
	// RequestDuration tracks request latency by method, route and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kabro",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kabro",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kabro",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// OrdersPlaced counts persisted orders by kind ("guest" or "member").
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kabro",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Total orders persisted.",
		},
		[]string{"kind"},
	)

	// TotalMismatches counts orders whose submitted total differs from the
	// sum of their lines.
	TotalMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kabro",
		Subsystem: "orders",
		Name:      "total_mismatch_total",
		Help:      "Orders whose submitted total differs from the item sum.",
	})

	// Notifications counts delivery outcomes by channel and result.
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kabro",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by channel and result.",
		},
		[]string{"channel", "transport", "result"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kabro",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"key"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kabro",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"key"},
	)
)

// Registry is the registry exposed on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersPlaced,
		TotalMismatches,
		Notifications,
		CacheHits,
		CacheMisses,
	)
}

// Middleware records duration, count and in-flight requests. Routes are
// labelled by their registered pattern, not the raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		// Errors are rendered here so the recorded status is the one sent.
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(labels...).Inc()
		return nil
	}
}

// Handler exposes the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// RecordNotification counts one delivery outcome.
func RecordNotification(channel, transport string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	Notifications.WithLabelValues(channel, transport, result).Inc()
}
