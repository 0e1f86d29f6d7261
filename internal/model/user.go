package model

// User role constants
const (
	UserRoleDoctor = "doctor"
	UserRoleNurse  = "nurse"
)

// User represents a system user
type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Role         string `json:"role" db:"role"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role" binding:"omitempty,max=64"`
}
