package domain

// Role is the enumerated authorization level of a user.
type Role string

const (
	RoleUser  Role = "user" // lowest privilege, the default
	RoleAdmin Role = "admin"
)

// rank orders roles by privilege. Unknown roles rank below everything so a
// corrupted value never grants access.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	default:
		return 0
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r.rank() > 0 }

// RoleAtLeast is the single authorization predicate consumed by the request
// layer: does role meet or exceed required?
func RoleAtLeast(role, required Role) bool {
	return role.rank() >= required.rank() && required.Valid()
}
