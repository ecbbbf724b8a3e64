package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
	// TicketStatusOverdue is an overlay entered by the SLA sweep. It is left
	// only by progressing to Resolved or Closed.
	TicketStatusOverdue TicketStatus = "Overdue"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// ValidTicketPriority reports whether p is a known priority.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// SLATable maps priority to resolution hours for a company.
type SLATable map[TicketPriority]int

// DefaultSLATable is used when a company carries no override.
func DefaultSLATable() SLATable {
	return SLATable{
		TicketPriorityLow:      48,
		TicketPriorityMedium:   24,
		TicketPriorityHigh:     8,
		TicketPriorityCritical: 2,
	}
}

// Hours returns the SLA hours for a priority, falling back to 48 for
// priorities absent from the table.
func (t SLATable) Hours(p TicketPriority) int {
	if t != nil {
		if h, ok := t[p]; ok && h > 0 {
			return h
		}
	}
	if h, ok := DefaultSLATable()[p]; ok {
		return h
	}
	return 48
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	CompanyID    string
	CustomerID   string
	TicketNumber string
	Subject      string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CreatedAt    time.Time
	DueAt        time.Time
	AssignedTo   *string
	AssignedAt   *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	UpdatedAt    time.Time
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed, TicketStatusOverdue},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed, TicketStatusOverdue},
	TicketStatusOverdue:    {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusClosed},
	TicketStatusClosed:     {},
}

// CanTransitionTicket reports whether from -> to is a legal move. Status only
// moves forward; the Overdue overlay is removable only via Resolved/Closed.
func CanTransitionTicket(from, to TicketStatus) bool {
	for _, next := range ticketTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change, stamping resolution timestamps.
func (t *Ticket) Transition(to TicketStatus, now time.Time) error {
	if !CanTransitionTicket(t.Status, to) {
		return fmt.Errorf("illegal ticket transition %q -> %q", t.Status, to)
	}
	t.Status = to
	switch to {
	case TicketStatusResolved:
		ts := now.UTC()
		t.ResolvedAt = &ts
	case TicketStatusClosed:
		ts := now.UTC()
		t.ClosedAt = &ts
	}
	return nil
}

// OpenForAssignmentLoad lists the statuses counted as an employee's current load.
func OpenForAssignmentLoad() []TicketStatus {
	return []TicketStatus{TicketStatusOpen, TicketStatusInProgress}
}
