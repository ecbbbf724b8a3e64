package domain

import "time"

// AdminNotification is a persisted in-app alert for company operators.
type AdminNotification struct {
	ID        string
	CompanyID string
	Title     string
	Message   string
	Type      string
	RelatedID *string
	IsRead    bool
	CreatedAt time.Time
}
