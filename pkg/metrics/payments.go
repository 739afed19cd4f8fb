package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts payment-confirmation outcomes. The duplicate and
// warning counters are the operational view of the idempotent sink: spikes
// in duplicates mean the upstream channel is redelivering, spikes in
// warnings mean confirmations are arriving with unresolvable metadata.
type PaymentMetrics struct {
	applied    prometheus.Counter
	duplicates prometheus.Counter
	warnings   prometheus.Counter
}

// NewPaymentMetrics registers the payment counters on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	applied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_confirmations_applied_total",
		Help: "Payment confirmations applied to the donation ledger.",
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_confirmations_duplicate_total",
		Help: "Payment confirmations skipped as already recorded.",
	})
	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_confirmations_reconciliation_warnings_total",
		Help: "Payment confirmations acknowledged without crediting, flagged for manual reconciliation.",
	})
	reg.MustRegister(applied, duplicates, warnings)
	return &PaymentMetrics{
		applied:    applied,
		duplicates: duplicates,
		warnings:   warnings,
	}
}

// IncApplied counts a first-delivery confirmation that credited the ledger.
func (p *PaymentMetrics) IncApplied() {
	if p == nil || p.applied == nil {
		return
	}
	p.applied.Inc()
}

// IncDuplicate counts a redelivered confirmation skipped as a no-op.
func (p *PaymentMetrics) IncDuplicate() {
	if p == nil || p.duplicates == nil {
		return
	}
	p.duplicates.Inc()
}

// IncReconciliationWarning counts a confirmation acknowledged on the
// degraded path.
func (p *PaymentMetrics) IncReconciliationWarning() {
	if p == nil || p.warnings == nil {
		return
	}
	p.warnings.Inc()
}
