package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the HTTP host.
type Metrics struct {
	requests *prometheus.CounterVec
	samples  prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oiviz",
			Name:      "requests_total",
			Help:      "Processed API requests by route and status code.",
		}, []string{"route", "code"}),
		samples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oiviz",
			Name:      "accepted_samples",
			Help:      "Number of CSV rows accepted per request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	reg.MustRegister(m.requests, m.samples)
	return m
}
