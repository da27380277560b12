package constants

const (
	Owner      = "owner"
	Operator   = "operator"
	Consultant = "consultant"
	Tenant     = "tenant"
)

// ValidRoles is the set of allowed profile roles.
var ValidRoles = []string{Owner, Operator, Consultant, Tenant}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
