package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics are recorded by middleware so handlers cannot skew them.
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "handler", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "handler", "method"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

// GinMiddleware instruments every route with its registered path template.
func GinMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ObserveRequest(service, c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// ObserveRequest records one finished request. Routers other than gin call it directly.
func ObserveRequest(service, handler, method string, status int, elapsed time.Duration) {
	if handler == "" {
		handler = "unmatched"
	}
	httpRequestDuration.WithLabelValues(service, handler, method).Observe(elapsed.Seconds())
	httpRequestsTotal.WithLabelValues(service, handler, method, strconv.Itoa(status)).Inc()
}

// Handler exposes the default registry for gin routers.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
