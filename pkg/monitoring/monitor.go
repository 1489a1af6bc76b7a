package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 生成调用耗时较长（本地模型可达数分钟），桶按分钟级设置
	GeneratorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_generator_duration_seconds",
			Help:    "Duration of content generator calls",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"provider", "kind", "outcome"},
	)

	RoadmapCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_cache_lookups_total",
			Help: "Roadmap cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	FallbackCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_responses_total",
			Help: "Responses served in a degraded form (fallback recommendations, sanitized roadmaps, unpersisted roadmaps)",
		},
		[]string{"kind"},
	)

	ProgressUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_updates_total",
			Help: "Topic completion requests by outcome (created, updated, noop)",
		},
		[]string{"outcome"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GeneratorDuration)
	prometheus.MustRegister(RoadmapCacheLookups)
	prometheus.MustRegister(FallbackCounter)
	prometheus.MustRegister(ProgressUpdates)
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
