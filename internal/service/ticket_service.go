package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/repository"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// TicketService coordinates ticket workflows: creation with SLA stamping and
// auto-assignment, replies, status moves and ratings.
type TicketService struct {
	tickets    repository.TicketRepository
	replies    repository.TicketReplyRepository
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	sla        *SLAService
	assignment *AssignmentService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ReplyRepo    repository.TicketReplyRepository
	CustomerRepo repository.CustomerRepository
	EmployeeRepo repository.EmployeeRepository
	SLA          *SLAService
	Assignment   *AssignmentService
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// TicketCreateResult is returned to the caller after creation.
type TicketCreateResult struct {
	Ticket   *domain.Ticket
	Assigned bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		customers:  deps.CustomerRepo,
		employees:  deps.EmployeeRepo,
		sla:        deps.SLA,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a ticket for a customer: stamps due_at from the
// company's SLA table, assigns the least-loaded zone technician when one
// exists and persists the result. An unassignable ticket is created
// unassigned, never rejected.
func (s *TicketService) CreateTicket(ctx context.Context, customerID string, input TicketCreateInput) (*TicketCreateResult, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.MapError(err)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	now := time.Now().UTC()
	table := s.sla.TableForCompany(ctx, customer.CompanyID)

	ticket := &domain.Ticket{
		CompanyID:    customer.CompanyID,
		CustomerID:   customer.ID,
		TicketNumber: generateTicketNumber(),
		Subject:      subject,
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		CreatedAt:    now,
		DueAt:        DueAt(table, priority, now),
		UpdatedAt:    now,
	}

	assignee, err := s.assignment.PickAssignee(ctx, customer.CompanyID, customer.ZoneID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assignee != nil {
		ticket.AssignedTo = &assignee.ID
		assignedAt := now
		ticket.AssignedAt = &assignedAt
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		CompanyID: ticket.CompanyID,
		Actor:     customerActor(customer.ID),
		Payload: events.TicketCreatedPayload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			Priority:     ticket.Priority,
			Subject:      ticket.Subject,
			DueAt:        ticket.DueAt,
		},
	})
	if assignee != nil {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketAssigned,
			CompanyID: ticket.CompanyID,
			Actor:     customerActor(customer.ID),
			Payload: events.TicketAssignedPayload{
				TicketID:   ticket.ID,
				EmployeeID: ticket.AssignedTo,
			},
		})
	}

	return &TicketCreateResult{Ticket: ticket, Assigned: assignee != nil}, nil
}

// ListCustomerTickets returns a customer's tickets, newest first.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customerID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	filter.CustomerID = &customerID
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetTicketForCustomer fetches a ticket and its replies, ensuring ownership.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customerID, ticketID string) (*domain.Ticket, []domain.TicketReply, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, replies, nil
}

// GetTicketForStaff fetches a ticket and its replies within the employee's
// company.
func (s *TicketService) GetTicketForStaff(ctx context.Context, employee *domain.Employee, ticketID string) (*domain.Ticket, []domain.TicketReply, error) {
	if employee == nil {
		return nil, nil, apperrors.NewUnauthorized("employee required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.CompanyID != employee.CompanyID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, replies, nil
}

// ListStaffTickets returns tickets visible to an employee. Technicians see
// their own queue; managers and admins see the whole company.
func (s *TicketService) ListStaffTickets(ctx context.Context, employee *domain.Employee, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if employee == nil {
		return nil, apperrors.NewUnauthorized("employee required")
	}
	filter.CompanyID = &employee.CompanyID
	if employee.Role == domain.EmployeeRoleTechnician {
		filter.AssignedTo = &employee.ID
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// UpdateTicketStatus moves a ticket through its lifecycle on behalf of an
// employee. Overdue is an overlay only the breach sweep applies; staff moves
// progress toward Resolved and Closed.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, employee *domain.Employee, ticketID string, to domain.TicketStatus) (*domain.Ticket, error) {
	if employee == nil {
		return nil, apperrors.NewUnauthorized("employee required")
	}
	if to == domain.TicketStatusOverdue {
		return nil, apperrors.NewForbidden("overdue is applied by the breach sweep")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CompanyID != employee.CompanyID {
		return nil, apperrors.NewForbidden("access denied")
	}

	if err := ticket.Transition(to, time.Now().UTC()); err != nil {
		return nil, apperrors.NewConflict(err.Error(), map[string]any{
			"ticket_id": ticketID,
			"status":    ticket.Status,
		})
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if to == domain.TicketStatusResolved {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketResolved,
			CompanyID: ticket.CompanyID,
			Actor:     employeeActor(employee.ID),
			Payload: events.TicketAssignedPayload{
				TicketID:   ticket.ID,
				EmployeeID: ticket.AssignedTo,
			},
		})
	}
	return ticket, nil
}

// AddReply appends a reply from either side of the conversation.
func (s *TicketService) AddReply(ctx context.Context, actor events.Actor, ticketID, message string) (*domain.TicketReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.Type == domain.SubjectTypeCustomer && (actor.CustomerID == nil || *actor.CustomerID != ticket.CustomerID) {
		return nil, apperrors.NewForbidden("access denied")
	}

	reply := &domain.TicketReply{
		TicketID:   ticket.ID,
		AuthorType: actor.Type,
		Message:    message,
	}
	switch actor.Type {
	case domain.SubjectTypeCustomer:
		reply.AuthorID = actor.CustomerID
	case domain.SubjectTypeEmployee:
		reply.AuthorID = actor.EmployeeID
	}
	if err := s.replies.CreateReply(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reply, nil
}

// RateTicket records customer feedback on a closed or resolved ticket.
func (s *TicketService) RateTicket(ctx context.Context, customerID, ticketID string, rating int, comment string) (*domain.TicketRating, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewConflict("ticket is not resolved yet", nil)
	}
	if existing, err := s.replies.GetRatingByTicket(ctx, ticket.ID); err == nil && existing != nil {
		return nil, apperrors.NewConflict("ticket already rated", nil)
	}

	record := &domain.TicketRating{
		TicketID:   ticket.ID,
		CustomerID: customerID,
		EmployeeID: ticket.AssignedTo,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}
	if err := s.replies.CreateRating(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func customerActor(customerID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: &customerID}
}

func employeeActor(employeeID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeEmployee, EmployeeID: &employeeID}
}

func generateTicketNumber() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
