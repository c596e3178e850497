package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PublishCollector exposes Prometheus metrics for the publishing
// pipeline: per-platform attempt counts and dispatch latency.
type PublishCollector struct {
	registry         *prometheus.Registry
	publishAttempts  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	keyAuthFailures  prometheus.Counter
}

// NewPublishCollector constructs a collector backed by a private registry.
func NewPublishCollector() (*PublishCollector, error) {
	registry := prometheus.NewRegistry()

	publishAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "publish",
		Name:      "attempts_total",
		Help:      "Total publish dispatches by platform and terminal status.",
	}, []string{"platform", "status"})

	dispatchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contentfactory",
		Subsystem: "publish",
		Name:      "dispatch_duration_seconds",
		Help:      "Latency distribution for platform dispatch calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"platform"})

	keyAuthFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "contentfactory",
		Subsystem: "auth",
		Name:      "key_failures_total",
		Help:      "Total rejected API key authentications.",
	})

	for _, c := range []prometheus.Collector{publishAttempts, dispatchDuration, keyAuthFailures} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &PublishCollector{
		registry:         registry,
		publishAttempts:  publishAttempts,
		dispatchDuration: dispatchDuration,
		keyAuthFailures:  keyAuthFailures,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *PublishCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveDispatch records one dispatch attempt and its duration.
func (c *PublishCollector) ObserveDispatch(platform, status string, elapsed time.Duration) {
	c.publishAttempts.WithLabelValues(platform, status).Inc()
	c.dispatchDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

// KeyAuthFailure counts one rejected API key authentication.
func (c *PublishCollector) KeyAuthFailure() {
	c.keyAuthFailures.Inc()
}
