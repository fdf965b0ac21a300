package app

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "protolab",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "protolab",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	requestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "protolab",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	movementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "protolab",
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Committed stock movements by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(requestDuration, requestTotal, requestInFlight, movementsTotal)
}

// Metrics records the standard HTTP metrics for every request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestInFlight.Inc()
		start := time.Now()

		c.Next()

		requestInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// CountMovement bumps the committed-movement counter.
func CountMovement(kind string) {
	movementsTotal.WithLabelValues(kind).Inc()
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
