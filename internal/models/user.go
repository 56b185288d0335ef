package models

// Role represents the actor's role in the HR application.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// User is a backend user as returned by login and by the name search.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// IsEmployee reports whether the role is the restricted "employee" role.
func (r Role) IsEmployee() bool {
	return r == RoleEmployee
}
