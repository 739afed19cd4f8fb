package enums

// FeeStatus is derived from the sum of payments against an assignment, never
// mutated directly by callers.
type FeeStatus string

const (
	FeeStatusInvoiced FeeStatus = "invoiced"
	FeeStatusPartial  FeeStatus = "partial"
	FeeStatusPaid     FeeStatus = "paid"
	FeeStatusWaived   FeeStatus = "waived"
)

// IsValid reports whether the status is recognized.
func (s FeeStatus) IsValid() bool {
	switch s {
	case FeeStatusInvoiced, FeeStatusPartial, FeeStatusPaid, FeeStatusWaived:
		return true
	}
	return false
}
