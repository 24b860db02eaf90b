package boombox

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_device_requests_total",
		Help: "Device API requests by method, endpoint and status class",
	}, []string{"method", "endpoint", "class"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boomctl_device_request_duration_seconds",
		Help:    "Device API request latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "endpoint", "class"})

	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boomctl_device_request_errors_total",
		Help: "Device API requests that failed or returned a non-2xx status",
	}, []string{"method", "endpoint", "class"})
)

func statusClass(err error, status int) string {
	if status == 0 && err != nil {
		return "error"
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	}
	return "unknown"
}

func recordRequestMetrics(method, endpoint string, status int, duration time.Duration, err error) {
	class := statusClass(err, status)
	requestTotal.WithLabelValues(method, endpoint, class).Inc()
	requestDuration.WithLabelValues(method, endpoint, class).Observe(duration.Seconds())
	if class != "2xx" || err != nil {
		requestErrors.WithLabelValues(method, endpoint, class).Inc()
	}
}
