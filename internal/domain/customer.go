package domain

import "time"

// CustomerStatus tracks subscription service state.
type CustomerStatus string

const (
	CustomerStatusActive       CustomerStatus = "Active"
	CustomerStatusSuspended    CustomerStatus = "Suspended"
	CustomerStatusDisconnected CustomerStatus = "Disconnected"
)

// Customer is a subscriber with a portal login.
type Customer struct {
	ID              string
	CompanyID       string
	ZoneID          *string
	FullName        string
	Email           string
	PhoneNumber     string
	Address         string
	PPPoEUsername   *string
	Status          CustomerStatus
	NextPaymentDate *time.Time
	PasswordHash    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
