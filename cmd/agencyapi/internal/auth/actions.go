package auth

// Casbin objects
const (
	ObjectInquiry = "inquiry"
	ObjectProfile = "profile"
	ObjectRole    = "role"
)

// Casbin actions
const (
	ActionSubmit = "submit"
	ActionRead   = "read"
	ActionDelete = "delete"
	ActionAssign = "assign"
	// ActionSelf covers a caller reading or writing their own profile.
	ActionSelf = "self"
)

// Role names as stored in role_assignments.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// RoleSubject is the casbin subject for a role name.
func RoleSubject(role string) string {
	return "role:" + role
}
