package monitoring

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TenantsRegistered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenants_registered_total",
			Help: "Total number of tenant registrations by outcome",
		},
		[]string{"outcome"},
	)
	RegistrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_registration_duration_seconds",
			Help:    "Duration of tenant registration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)
	QuotaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Total number of creations rejected by a tenant quota",
		},
		[]string{"resource"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func InitMetrics() {
	collectors := map[string]prometheus.Collector{
		"TenantsRegistered":    TenantsRegistered,
		"RegistrationDuration": RegistrationDuration,
		"LoginAttempts":        LoginAttempts,
		"QuotaRejections":      QuotaRejections,
		"HTTPRequests":         HTTPRequests,
		"HTTPDuration":         HTTPDuration,
	}
	for name, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Str("metric", name).Msg("Failed to register metric")
		}
	}
}

// HTTPMetrics records request count and latency per route template.
func HTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
