// Package metrics declares the Prometheus metrics the orchestrator and its
// collaborators report, mirroring the shape of the teacher's
// internal/platform/metrics and internal/ratelimit/metrics packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric domain-analyzer registers.
type Metrics struct {
	DomainsScannedTotal   *prometheus.CounterVec
	ChecksRunTotal        *prometheus.CounterVec
	TokenBucketDenials    prometheus.Counter
	WHOISRateLimitedTotal prometheus.Counter
	ProfileLatency        *prometheus.HistogramVec
}

// New creates and registers the metric set.
func New() *Metrics {
	return &Metrics{
		DomainsScannedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_analyzer_domains_scanned_total",
			Help: "Total number of domains scanned, by final status",
		}, []string{"status"}),
		ChecksRunTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_analyzer_checks_run_total",
			Help: "Total number of individual checks run, by check name and status",
		}, []string{"check", "status"}),
		TokenBucketDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domain_analyzer_token_bucket_denials_total",
			Help: "Total number of rate limiter denials across all buckets",
		}),
		WHOISRateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domain_analyzer_whois_rate_limited_total",
			Help: "Total number of WHOIS lookups that degraded due to rate limiting",
		}),
		ProfileLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domain_analyzer_profile_latency_seconds",
			Help:    "Latency of individual profile executions in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"profile"}),
	}
}

// RecordDomainScanned increments the per-status domain counter.
func (m *Metrics) RecordDomainScanned(status string) {
	m.DomainsScannedTotal.WithLabelValues(status).Inc()
}

// RecordCheck increments the per-check, per-status check counter.
func (m *Metrics) RecordCheck(check, status string) {
	m.ChecksRunTotal.WithLabelValues(check, status).Inc()
}

// IncrementTokenBucketDenials increments the rate limiter denial counter.
func (m *Metrics) IncrementTokenBucketDenials() {
	m.TokenBucketDenials.Inc()
}

// IncrementWHOISRateLimited increments the WHOIS degradation counter.
func (m *Metrics) IncrementWHOISRateLimited() {
	m.WHOISRateLimitedTotal.Inc()
}

// ObserveProfileLatency records one profile execution's duration.
func (m *Metrics) ObserveProfileLatency(profile string, seconds float64) {
	m.ProfileLatency.WithLabelValues(profile).Observe(seconds)
}
