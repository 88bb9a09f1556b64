package domain

// Role enumerates what a user is allowed to do with tickets.
type Role string

const (
	RoleReporter  Role = "REPORTER"
	RoleDeveloper Role = "DEVELOPER"
)

// IsValid reports whether the value is a known role.
func (r Role) IsValid() bool {
	return r == RoleReporter || r == RoleDeveloper
}

// Profile is the 1:1 extension of a User carrying its role. It is created in
// the same transaction as the user at registration, so every authenticated
// caller has one before any role check runs.
type Profile struct {
	UserID string
	Role   Role
}
