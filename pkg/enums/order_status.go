package enums

// OrderStatus reflects the lifecycle of a recorded ticket sale. Orders are
// immutable once completed; refunded exists for manual back-office corrections.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// IsValid reports whether the status is recognized.
func (s OrderStatus) IsValid() bool {
	return s == OrderStatusCompleted || s == OrderStatusRefunded
}
