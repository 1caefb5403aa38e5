package auth

import "strings"

// Role is the closed set of caller kinds carried in the token.
type Role string

const (
	RoleDriver  Role = "driver"
	RoleCompany Role = "fleetmanager"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a token role claim onto a Role. "company" is accepted as
// an alias for fleet managers.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "driver":
		return RoleDriver, true
	case "fleetmanager", "company":
		return RoleCompany, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// Caller is the authenticated principal of a request.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (c Caller) IsDriver() bool  { return c.Role == RoleDriver }
func (c Caller) IsCompany() bool { return c.Role == RoleCompany }
func (c Caller) IsAdmin() bool   { return c.Role == RoleAdmin }

// System is used as the actor for transitions made by background jobs.
var System = Caller{ID: "system", Role: RoleAdmin}
