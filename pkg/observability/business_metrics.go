package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// Settlement generation metrics
	settlementsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_generated_total",
		Help: "Total number of settlements generated",
	}, []string{
		"party_type", // seller, supplier, partner, platform
	})

	settlementPayableAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_payable_amount_total",
		Help: "Total payable amount written to the settlement ledger",
	}, []string{
		"party_type",
	})

	settlementGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_generation_duration_seconds",
		Help:    "Time to compute and persist settlements for one order",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{
		"outcome", // generated, rejected, failed
	})

	// Lifecycle transition metrics
	settlementTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transitions_total",
		Help: "Total settlement state transitions",
	}, []string{
		"action", // finalize, mark_paid, cancel
		"status", // accepted, rejected
	})

	// Dashboard aggregation metrics
	dashboardQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_queries_total",
		Help: "Total dashboard summary computations (cache misses)",
	}, []string{
		"role", // seller, supplier
	})
)

// RecordSettlementGenerated records one generated settlement
func RecordSettlementGenerated(partyType string, amount decimal.Decimal) {
	settlementsGeneratedTotal.WithLabelValues(partyType).Inc()
	value, _ := amount.Float64()
	settlementPayableAmount.WithLabelValues(partyType).Add(value)
}

// RecordGenerationDuration records the end-to-end time of a generation call
func RecordGenerationDuration(outcome string, seconds float64) {
	settlementGenerationDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordTransition records a lifecycle transition attempt
func RecordTransition(action string, accepted bool) {
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	settlementTransitionsTotal.WithLabelValues(action, status).Inc()
}

// RecordDashboardQuery records a dashboard summary computed from the database
func RecordDashboardQuery(role string) {
	dashboardQueriesTotal.WithLabelValues(role).Inc()
}
