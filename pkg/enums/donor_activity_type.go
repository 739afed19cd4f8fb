package enums

import "fmt"

// DonorActivityType classifies entries on a donor's activity timeline.
type DonorActivityType string

const (
	DonorActivityDonation       DonorActivityType = "donation"
	DonorActivityTicketPurchase DonorActivityType = "ticket_purchase"
	DonorActivityNote           DonorActivityType = "note"
	DonorActivityEmailSent      DonorActivityType = "email_sent"
	DonorActivityManualLog      DonorActivityType = "manual_log"
)

var validDonorActivityTypes = []DonorActivityType{
	DonorActivityDonation,
	DonorActivityTicketPurchase,
	DonorActivityNote,
	DonorActivityEmailSent,
	DonorActivityManualLog,
}

// IsValid reports whether the type is recognized.
func (t DonorActivityType) IsValid() bool {
	for _, candidate := range validDonorActivityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseDonorActivityType converts raw input into a DonorActivityType.
func ParseDonorActivityType(value string) (DonorActivityType, error) {
	for _, candidate := range validDonorActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid donor activity type %q", value)
}
