package models

// Rôles applicatifs. Le passage de "customer" à "admin" ne se fait que
// via le workflow de promotion 2FA (handlers/admin).
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID       string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     string `json:"role,omitempty"`
	Provider string `json:"provider,omitempty"`
	IsActive bool   `json:"is_active"`
}
