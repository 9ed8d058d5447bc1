package entity

import "time"

// Role identifies what a user may do within their company.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// User represents an account within a company. ManagerID is a
// self-referencing lookup, nil for users without a manager.
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
