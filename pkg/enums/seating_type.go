package enums

// SeatingType distinguishes general admission from reserved seating ticket
// types. Reserved seating layout persistence lives outside this service.
type SeatingType string

const (
	SeatingGeneralAdmission SeatingType = "general_admission"
	SeatingReserved         SeatingType = "reserved"
)

// IsValid reports whether the seating type is recognized.
func (s SeatingType) IsValid() bool {
	return s == SeatingGeneralAdmission || s == SeatingReserved
}
