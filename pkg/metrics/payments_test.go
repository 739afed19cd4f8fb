package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPaymentMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPaymentMetrics(reg)

	metrics.IncApplied()
	metrics.IncApplied()
	metrics.IncDuplicate()
	metrics.IncReconciliationWarning()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	cases := map[string]float64{
		"payment_confirmations_applied_total":                 2,
		"payment_confirmations_duplicate_total":               1,
		"payment_confirmations_reconciliation_warnings_total": 1,
	}
	for name, want := range cases {
		mf := findMetricFamily(mfs, name)
		if mf == nil {
			t.Fatalf("metric %q not found", name)
		}
		got := mf.GetMetric()[0].GetCounter().GetValue()
		if got != want {
			t.Fatalf("%s: expected %f, got %f", name, want, got)
		}
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var metrics *PaymentMetrics
	metrics.IncApplied()
	metrics.IncDuplicate()
	metrics.IncReconciliationWarning()
}
