package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
	mutations       *prometheus.CounterVec
	startTime       time.Time
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "todo_http_active_requests",
			Help: "Requests currently being served.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_store_mutations_total",
			Help: "Task store mutations by operation and persistence result.",
		}, []string{"op", "result"}),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.activeRequests,
		m.mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// TrackTasks exposes the current collection size as a gauge.
func (m *Metrics) TrackTasks(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "todo_tasks",
		Help: "Tasks in the in-memory collection.",
	}, func() float64 {
		return float64(count())
	}))
}

func (m *Metrics) RecordMutation(op string, persisted bool) {
	result := "persisted"
	if !persisted {
		result = "persist_failed"
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.activeRequests.Inc()

		c.Next()

		m.activeRequests.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.requestCount.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
