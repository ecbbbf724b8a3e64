package events

import (
	"time"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketOverdue  EventType = "ticket_overdue"
	EventTicketResolved EventType = "ticket_resolved"

	EventOrderPlaced        EventType = "order_placed"
	EventOrderPaymentFailed EventType = "order_payment_failed"
	EventPaymentReceived    EventType = "payment_received"
	EventServiceReactivated EventType = "service_reactivated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	CustomerID *string            `json:"customer_id,omitempty"`
	EmployeeID *string            `json:"employee_id,omitempty"`
}

// SystemActor marks events emitted by background jobs rather than a request.
func SystemActor() Actor {
	return Actor{Type: domain.SubjectTypeEmployee}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CompanyID string      `json:"company_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID     string                `json:"ticket_id"`
	TicketNumber string                `json:"ticket_number"`
	Priority     domain.TicketPriority `json:"priority"`
	Subject      string                `json:"subject"`
	DueAt        time.Time             `json:"due_at"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID   string  `json:"ticket_id"`
	EmployeeID *string `json:"employee_id,omitempty"`
}

// TicketOverduePayload payload.
type TicketOverduePayload struct {
	TicketID     string    `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	DueAt        time.Time `json:"due_at"`
}

// PaymentReceivedPayload payload.
type PaymentReceivedPayload struct {
	Reference     string  `json:"reference"`
	ReferenceType string  `json:"reference_type"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id"`
	PayerEmail    string  `json:"payer_email,omitempty"`
}

// ServiceReactivatedPayload payload.
type ServiceReactivatedPayload struct {
	CustomerID      string    `json:"customer_id"`
	WasSuspended    bool      `json:"was_suspended"`
	NextPaymentDate time.Time `json:"next_payment_date"`
}
