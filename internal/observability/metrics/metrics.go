package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config carries constant labels attached to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// HTTPMetrics instruments the gin engine.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	return newHTTPMetrics(cfg, prometheus.DefaultRegisterer)
}

// NewHTTPMetricsWithRegisterer is for tests that need an isolated registry.
func NewHTTPMetricsWithRegisterer(cfg Config, reg prometheus.Registerer) *HTTPMetrics {
	return newHTTPMetrics(cfg, reg)
}

func newHTTPMetrics(cfg Config, reg prometheus.Registerer) *HTTPMetrics {
	labels := prometheus.Labels{
		"service": cfg.ServiceName,
		"env":     cfg.Environment,
	}
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "atelier_http_requests_total",
			Help:        "HTTP requests by method, route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "atelier_http_request_duration_seconds",
			Help:        "HTTP request duration.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// StatementMetrics tracks monthly statement generation runs.
type StatementMetrics struct {
	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

func NewStatementMetrics(cfg Config) *StatementMetrics {
	return newStatementMetrics(cfg, prometheus.DefaultRegisterer)
}

// NewStatementMetricsWithRegisterer is for tests that need an isolated registry.
func NewStatementMetricsWithRegisterer(cfg Config, reg prometheus.Registerer) *StatementMetrics {
	return newStatementMetrics(cfg, reg)
}

func newStatementMetrics(cfg Config, reg prometheus.Registerer) *StatementMetrics {
	labels := prometheus.Labels{
		"service": cfg.ServiceName,
		"env":     cfg.Environment,
	}
	factory := promauto.With(reg)
	return &StatementMetrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "atelier_extrato_runs_total",
			Help:        "Statement generation attempts by trigger and outcome.",
			ConstLabels: labels,
		}, []string{"trigger", "outcome"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "atelier_extrato_stage_duration_seconds",
			Help:        "Duration of each statement generation stage.",
			ConstLabels: labels,
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
}

func (m *StatementMetrics) IncRun(trigger, outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(trigger, outcome).Inc()
}

func (m *StatementMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
