package enums

// MemberStatus tracks whether a roster member is currently active in an
// ensemble. Only active members are seeded into campaigns and sale links.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusAlumni   MemberStatus = "alumni"
)

// IsValid reports whether the status is recognized.
func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusAlumni:
		return true
	}
	return false
}
