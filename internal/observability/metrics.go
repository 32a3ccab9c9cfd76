package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "rides_created_total", Help: "Total rides created"})
	JoinsTotal        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "joins_total", Help: "Total successful ride joins"})

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campool", Name: "cancellations_total", Help: "Total cancellations by caller role"},
		[]string{"role"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
