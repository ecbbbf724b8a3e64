package dto

import (
	"time"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketStatusRequest payload for staff status moves.
type UpdateTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AddReplyRequest payload.
type AddReplyRequest struct {
	Message string `json:"message"`
}

// RateTicketRequest payload.
type RateTicketRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedTo   *string               `json:"assigned_to"`
	CreatedAt    time.Time             `json:"created_at"`
	DueAt        time.Time             `json:"due_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including the reply thread.
type TicketDetailResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	AssignedTo   *string               `json:"assigned_to"`
	AssignedAt   *time.Time            `json:"assigned_at"`
	CreatedAt    time.Time             `json:"created_at"`
	DueAt        time.Time             `json:"due_at"`
	ResolvedAt   *time.Time            `json:"resolved_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
	Replies      []TicketReplyResponse `json:"replies"`
}

// TicketReplyResponse represents one thread message.
type TicketReplyResponse struct {
	ID         string             `json:"id"`
	AuthorType domain.SubjectType `json:"author_type"`
	AuthorID   *string            `json:"author_id"`
	Message    string             `json:"message"`
	CreatedAt  time.Time          `json:"created_at"`
}

// TicketRatingResponse response.
type TicketRatingResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
