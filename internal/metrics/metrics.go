// Package metrics регистрирует метрики Prometheus сервиса и отдаёт их на /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gig_marketplace"

var (
	// Registry содержит все коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	orderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Order status transitions.",
	}, []string{"from", "to"})

	paymentOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "operations_total",
		Help:      "Payment gateway operations by outcome.",
	}, []string{"operation", "result"})

	autoReleases = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "auto_releases_total",
		Help:      "Escrow auto-release attempts by outcome.",
	}, []string{"result"})

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open WebSocket connections.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		orderTransitions,
		paymentOperations,
		autoReleases,
		wsConnections,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler отдаёт зарегистрированные метрики.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware считает запросы по шаблону маршрута, а не по фактическому пути.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// OrderTransition фиксирует смену статуса заказа.
func OrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

// PaymentOperation фиксирует вызов платёжного шлюза.
func PaymentOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	paymentOperations.WithLabelValues(operation, result).Inc()
}

// AutoRelease фиксирует результат автоматического освобождения эскроу.
func AutoRelease(released, failed int) {
	autoReleases.WithLabelValues("released").Add(float64(released))
	autoReleases.WithLabelValues("failed").Add(float64(failed))
}

// WSConnected и WSDisconnected ведут счётчик открытых сокетов.
func WSConnected()    { wsConnections.Inc() }
func WSDisconnected() { wsConnections.Dec() }
