package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

type metrics struct {
	registry *prometheus.Registry

	// detections counts detection runs by operation and result.
	detections *prometheus.CounterVec
	// sequenceLength tracks how many samples each detection run received.
	sequenceLength *prometheus.HistogramVec
	// requestDuration tracks HTTP latency by route.
	requestDuration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "olanalytics_detections_total",
			Help: "Detection runs by operation and result",
		}, []string{"operation", "result"}),
		sequenceLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "olanalytics_sequence_length",
			Help:    "Number of samples per detection run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
		}, []string{"operation"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "olanalytics_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.detections,
		m.sequenceLength,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeDetection(operation string, samples int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.detections.WithLabelValues(operation, result).Inc()
	m.sequenceLength.WithLabelValues(operation).Observe(float64(samples))
}

func (m *metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// instrument tags every request with an id, logs it, and records its latency.
func instrument(logger *zap.Logger, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.requestDuration.WithLabelValues(c.Request.Method, route, statusClass(status)).Observe(elapsed.Seconds())

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
