package models

// IdentityStatus is the trust level attached to a person.
type IdentityStatus string

const (
	IdentityKnown   IdentityStatus = "known"
	IdentityAllowed IdentityStatus = "allowed"
	IdentityBanned  IdentityStatus = "banned"
	IdentityUnknown IdentityStatus = "unknown"
)

// String returns the string representation of IdentityStatus
func (s IdentityStatus) String() string {
	return string(s)
}

// IsValid checks if the identity status is one of the supported values
func (s IdentityStatus) IsValid() bool {
	switch s {
	case IdentityKnown, IdentityAllowed, IdentityBanned, IdentityUnknown:
		return true
	default:
		return false
	}
}

// Trusted reports whether the status exempts a person from loitering alerts.
func (s IdentityStatus) Trusted() bool {
	return s == IdentityKnown || s == IdentityAllowed
}

// IdentityResult is what an identity resolver returns for one person crop.
// Distance is 0 when the result is unknown.
type IdentityResult struct {
	Name     string         `json:"name"`
	Status   IdentityStatus `json:"status"`
	Distance float64        `json:"distance"`
}

// UnknownIdentity is the result used for unresolved or failed lookups.
func UnknownIdentity() IdentityResult {
	return IdentityResult{Name: "Unknown", Status: IdentityUnknown}
}
