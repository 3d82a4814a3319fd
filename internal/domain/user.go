package domain

import "time"

// Role levels gate access to endpoints; higher levels include lower ones.
const (
	RoleOperator      = 1
	RoleSupervisor    = 2
	RoleManager       = 3
	RoleAdministrator = 4
)

// User is an authenticated shopfloor account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	RoleLevel    int
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
