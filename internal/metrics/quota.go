// Package metrics defines Prometheus instrumentation for the quota service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Quota Prometheus metrics.
var (
	AdmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokengate",
			Name:      "admissions_total",
			Help:      "Admission decisions by pool and outcome",
		},
		[]string{"pool", "decision"}, // "allowed" / "denied"
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokengate",
			Name:      "tokens_total",
			Help:      "Tokens counted into the daily total",
		},
		[]string{"pool", "direction"}, // "input" / "output"
	)

	RolloversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokengate",
			Name:      "rollovers_total",
			Help:      "Completed daily rollovers",
		},
		[]string{"pool"},
	)

	StoreFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokengate",
			Name:      "store_failures_total",
			Help:      "Store operation failures observed by the tracker",
		},
		[]string{"pool"},
	)
)

var quotaMetricsRegistered bool

// RegisterQuotaMetrics registers quota metrics. Must be called once from main.
func RegisterQuotaMetrics() {
	if quotaMetricsRegistered {
		return
	}
	prometheus.MustRegister(AdmissionsTotal)
	prometheus.MustRegister(TokensTotal)
	prometheus.MustRegister(RolloversTotal)
	prometheus.MustRegister(StoreFailuresTotal)
	quotaMetricsRegistered = true
}
