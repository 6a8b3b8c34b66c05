package membership

import "time"

// Role is the part a user plays inside a tent.
type Role string

const (
	RoleClient  Role = "client"
	RoleManager Role = "manager"
)

// Valid reports whether the role is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleManager
}

// Complement returns the role the second member of a tent receives.
func (r Role) Complement() Role {
	if r == RoleClient {
		return RoleManager
	}
	return RoleClient
}

// Membership binds a user to a tent with a role. A tent holds at most two
// memberships, one per role.
type Membership struct {
	UserID    string    `json:"user_id"`
	TentID    string    `json:"tent_id"`
	Role      Role      `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
