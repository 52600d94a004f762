package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP handlers by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal)
	})
}

// Middleware observes every request against its registered route path.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			route := c.Path()
			method := c.Request().Method
			RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
