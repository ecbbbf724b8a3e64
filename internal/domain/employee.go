package domain

import "time"

// EmployeeStatus gates assignment eligibility.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "Active"
	EmployeeStatusInactive EmployeeStatus = "Inactive"
)

// EmployeeRole enumerates internal operator roles.
type EmployeeRole string

const (
	EmployeeRoleTechnician EmployeeRole = "TECHNICIAN"
	EmployeeRoleManager    EmployeeRole = "MANAGER"
	EmployeeRoleAdmin      EmployeeRole = "ADMIN"
)

// Employee models an ISP field technician or administrator. The current
// open-ticket count is derived per assignment decision, never stored here.
type Employee struct {
	ID           string
	CompanyID    string
	ZoneID       *string
	FullName     string
	Email        string
	PasswordHash string
	Role         EmployeeRole
	Status       EmployeeStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
