package models

// Role names stored in the profiles table
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an authenticated account together with its profile role
type User struct {
	ID    string `json:"id" example:"5a4b1d0e-2f44-4c61-9a55-5f0f0b6b9c11"`
	Email string `json:"email" example:"operador@example.com"`
	Role  string `json:"role" example:"user"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CreateUserRequest represents an admin request to create an account
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email" example:"operador@example.com"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required" example:"user"`
}

// UpdateRoleRequest represents an admin request to change a role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required" example:"admin"`
}

// RoleResponse carries a single role
type RoleResponse struct {
	Role string `json:"role" example:"user"`
}

// MessageResponse is a plain confirmation body
type MessageResponse struct {
	Message string      `json:"message" example:"User role updated successfully"`
	UserID  string      `json:"userId,omitempty"`
	User    *User       `json:"user,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// IsValidRole reports whether role is one the portal understands
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
