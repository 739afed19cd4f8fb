// Package money holds the integer-cent arithmetic for orders, donations and
// fees. All pricing happens in cents; the legacy ticketing tables store
// decimal dollars, so the repo layer converts at the boundary.
package money

import "github.com/shopspring/decimal"

// Platform fee: 3% of the subtotal plus a 30 cent fixed charge.
const (
	feePercentNumerator = 3
	feeFixedCents       = 30
)

// LineItem is one priced unit in a purchase, quantity included.
type LineItem struct {
	UnitPriceCents int64
	Quantity       int64
}

// Quote is the full price breakdown for a purchase.
type Quote struct {
	SubtotalCents int64
	FeeCents      int64
	DonationCents int64
	TotalCents    int64
}

// Price computes the charge breakdown for a set of line items plus an
// optional donation add-on. The fee applies to the ticket subtotal only,
// never to the donation.
func Price(items []LineItem, donationCents int64) Quote {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Quantity
	}

	q := Quote{
		SubtotalCents: subtotal,
		FeeCents:      Fee(subtotal),
		DonationCents: donationCents,
	}
	q.TotalCents = q.SubtotalCents + q.FeeCents + q.DonationCents
	return q
}

// Fee returns the platform fee for a subtotal: 3% rounded half-up, plus the
// fixed 30 cents. A zero subtotal still carries the fixed charge.
func Fee(subtotalCents int64) int64 {
	percent := (subtotalCents*feePercentNumerator + 50) / 100
	return percent + feeFixedCents
}

// CentsFromDecimal converts a decimal dollar amount from the legacy tables
// into cents, rounding half-up at the cent boundary.
func CentsFromDecimal(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// DecimalFromCents renders cents as a two-place decimal dollar amount for
// the legacy columns.
func DecimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
