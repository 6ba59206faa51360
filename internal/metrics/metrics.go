package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "requests_total",
		Help:      "Handled messenger events by action and status code.",
	}, []string{"action", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "messenger",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling one messenger event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter.",
	})
)

// Observe records one handled event.
func Observe(action string, status int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(action, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}
