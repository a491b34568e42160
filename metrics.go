// FILE: metrics.go
// Package engine – Prometheus metrics for observability.
//
// Mirrors the teacher's metrics.go (a package-level var block of
// collectors registered in init(), plus small setter helpers). Exposes:
//   - ab_ticks_total{result}              – ticks processed (ok|invalid_metrics|stale)
//   - ab_allocation_control / _variant    – gauges, last tick's split
//   - ab_prob_variant_wins                – gauge
//   - ab_eoc_per_1000_sessions            – histogram
//   - ab_safety_budget_remaining          – gauge
//   - ab_promotions_total / ab_stops_total – counters
//   - ab_cvar_throttle_total              – counter, ticks where the CVaR cap engaged
//
// These are package-level so cmd/simulator can serve them over
// promhttp the same way the teacher's main.go does at /metrics.
package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ab_ticks_total",
			Help: "Allocation ticks processed, by result.",
		},
		[]string{"result"}, // ok|invalid_metrics|stale
	)

	mtxAllocationControl = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ab_allocation_control",
			Help: "Most recent control allocation share.",
		},
	)

	mtxAllocationVariant = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ab_allocation_variant",
			Help: "Most recent variant allocation share.",
		},
	)

	mtxProbVariantWins = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ab_prob_variant_wins",
			Help: "Most recent P(variant ARPU > control ARPU).",
		},
	)

	mtxEOCPer1000 = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ab_eoc_per_1000_sessions",
			Help:    "Expected opportunity cost per 1,000 sessions, per tick.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	mtxSafetyBudgetRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ab_safety_budget_remaining",
			Help: "Remaining safety budget in currency units.",
		},
	)

	mtxPromotions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ab_promotions_total",
			Help: "Ticks where shouldPromote was true.",
		},
	)

	mtxStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ab_stops_total",
			Help: "Ticks where shouldStop was true.",
		},
	)

	mtxCVaRThrottle = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ab_cvar_throttle_total",
			Help: "Ticks where the CVaR emergency variant-floor cap engaged.",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxTicks)
	prometheus.MustRegister(mtxAllocationControl, mtxAllocationVariant, mtxProbVariantWins)
	prometheus.MustRegister(mtxEOCPer1000, mtxSafetyBudgetRemaining)
	prometheus.MustRegister(mtxPromotions, mtxStops, mtxCVaRThrottle)
}

// RecordTick updates every metric from one completed tick's result. Call
// it after a successful ComputeAllocationUpdate; invalid/stale ticks
// should call RecordTickError instead.
func RecordTick(result AllocationUpdateResult, cvarThrottled bool) {
	mtxTicks.WithLabelValues("ok").Inc()
	mtxAllocationControl.Set(result.Allocation.Control)
	mtxAllocationVariant.Set(result.Allocation.Variant)
	mtxProbVariantWins.Set(result.ProbVariantWins)
	mtxEOCPer1000.Observe(result.EOCPer1000)
	mtxSafetyBudgetRemaining.Set(result.NewState.SafetyBudgetRemaining)
	if result.PromotionCheck.ShouldPromote {
		mtxPromotions.Inc()
	}
	if result.ShouldStop {
		mtxStops.Inc()
	}
	if cvarThrottled {
		mtxCVaRThrottle.Inc()
	}
}

// RecordTickError increments the ticks counter under the given failure
// result label (e.g. "invalid_metrics", "stale").
func RecordTickError(result string) {
	mtxTicks.WithLabelValues(result).Inc()
}
