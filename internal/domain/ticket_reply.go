package domain

import "time"

// TicketReply is one message on a ticket thread.
type TicketReply struct {
	ID         string
	TicketID   string
	AuthorType SubjectType
	AuthorID   *string
	Message    string
	CreatedAt  time.Time
}

// TicketRating is the customer's one-time rating of a resolved ticket. The
// employee who owned the resolution is recorded for review averages.
type TicketRating struct {
	ID         string
	TicketID   string
	CustomerID string
	EmployeeID *string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}
