package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Quiz attempts started",
		},
	)

	AttemptsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_finalized_total",
			Help: "Quiz attempts scored and persisted, by submit trigger and outcome",
		},
		[]string{"trigger", "passed"},
	)

	AttemptScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_attempt_percentage_score",
			Help:    "Distribution of percentage scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Attempt sessions held in memory",
		},
	)

	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_reminders_total",
			Help: "Reminders dispatched, by type and status",
		},
		[]string{"type", "status"},
	)
)

var registerOnce sync.Once

// Init registers collectors with the default registry; safe to call more than once
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsStarted,
			AttemptsFinalized,
			AttemptScore,
			ActiveSessions,
			RemindersSent,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordFinalized tracks one persisted attempt result
func RecordFinalized(trigger string, passed bool, percentage int) {
	AttemptsFinalized.WithLabelValues(trigger, strconv.FormatBool(passed)).Inc()
	AttemptScore.Observe(float64(percentage))
}
