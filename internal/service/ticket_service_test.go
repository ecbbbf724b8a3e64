package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/repository"
)

type ticketFixture struct {
	tickets    *mockTicketRepo
	replies    *mockReplyRepo
	customers  *mockCustomerRepo
	employees  *mockEmployeeRepo
	companies  *mockCompanyRepo
	dispatcher *captureDispatcher
	svc        *TicketService
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:    newMockTicketRepo(),
		replies:    newMockReplyRepo(),
		customers:  newMockCustomerRepo(),
		employees:  newMockEmployeeRepo(),
		companies:  newMockCompanyRepo(),
		dispatcher: &captureDispatcher{},
	}
	sla := newSLAService(f.tickets, f.companies, f.dispatcher)
	assignment := newAssignmentService(f.employees, f.tickets)
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:   f.tickets,
		ReplyRepo:    f.replies,
		CustomerRepo: f.customers,
		EmployeeRepo: f.employees,
		SLA:          sla,
		Assignment:   assignment,
		Dispatcher:   f.dispatcher,
	})
	return f
}

func (f *ticketFixture) seedCustomer(zone *string) *domain.Customer {
	customer := &domain.Customer{
		ID:        "customer-1",
		CompanyID: "company-1",
		ZoneID:    zone,
		FullName:  "Rahim Uddin",
		Email:     "rahim@example.com",
		Status:    domain.CustomerStatusActive,
	}
	f.customers.customers[customer.ID] = customer
	return customer
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a customer in a staffed zone When creating Then the ticket is stamped and assigned", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		zone := "zone-1"
		f.seedCustomer(&zone)
		f.employees.byZone = []domain.Employee{zoneEmployee("emp-1")}
		f.companies.sla = domain.SLATable{domain.TicketPriorityHigh: 8}

		// When
		result, err := f.svc.CreateTicket(ctx, "customer-1", TicketCreateInput{
			Subject:  "No internet",
			Priority: domain.TicketPriorityHigh,
		})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ticket := result.Ticket
		if ticket.Status != domain.TicketStatusOpen {
			t.Fatalf("expected Open, got %s", ticket.Status)
		}
		if got := ticket.DueAt.Sub(ticket.CreatedAt); got != 8*time.Hour {
			t.Fatalf("expected 8h SLA window, got %v", got)
		}
		if !result.Assigned || ticket.AssignedTo == nil || *ticket.AssignedTo != "emp-1" {
			t.Fatalf("expected assignment to emp-1, got %+v", ticket.AssignedTo)
		}
		if ticket.AssignedAt == nil {
			t.Fatal("expected AssignedAt to be stamped")
		}
		if len(f.dispatcher.byType(events.EventTicketCreated)) != 1 {
			t.Fatal("expected a ticket_created event")
		}
		if len(f.dispatcher.byType(events.EventTicketAssigned)) != 1 {
			t.Fatal("expected a ticket_assigned event")
		}
	})

	t.Run("Given no priority When creating Then Medium is applied", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		f.seedCustomer(nil)

		// When
		result, err := f.svc.CreateTicket(ctx, "customer-1", TicketCreateInput{Subject: "Slow speeds"})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Ticket.Priority != domain.TicketPriorityMedium {
			t.Fatalf("expected Medium default, got %s", result.Ticket.Priority)
		}
		if got := result.Ticket.DueAt.Sub(result.Ticket.CreatedAt); got != 24*time.Hour {
			t.Fatalf("expected 24h window for Medium, got %v", got)
		}
	})

	t.Run("Given an unstaffed zone When creating Then the ticket lands unassigned", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		zone := "zone-9"
		f.seedCustomer(&zone)

		// When
		result, err := f.svc.CreateTicket(ctx, "customer-1", TicketCreateInput{Subject: "Outage"})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Assigned || result.Ticket.AssignedTo != nil {
			t.Fatalf("expected unassigned ticket, got %+v", result.Ticket.AssignedTo)
		}
		if len(f.dispatcher.byType(events.EventTicketAssigned)) != 0 {
			t.Fatal("expected no ticket_assigned event")
		}
	})

	t.Run("Given a blank subject When creating Then validation fails", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		f.seedCustomer(nil)

		// When
		_, err := f.svc.CreateTicket(ctx, "customer-1", TicketCreateInput{Subject: "   "})

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("Given an unknown priority When creating Then validation fails", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		f.seedCustomer(nil)

		// When
		_, err := f.svc.CreateTicket(ctx, "customer-1", TicketCreateInput{
			Subject:  "Outage",
			Priority: domain.TicketPriority("Urgent"),
		})

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("Given an unknown customer When creating Then not found", func(t *testing.T) {
		// Given
		f := newTicketFixture()

		// When
		_, err := f.svc.CreateTicket(ctx, "missing", TicketCreateInput{Subject: "Outage"})

		// Then
		assertErrorCode(t, err, "NOT_FOUND")
	})
}

func TestUpdateTicketStatus(t *testing.T) {
	ctx := context.Background()
	staff := &domain.Employee{ID: "emp-1", CompanyID: "company-1", Role: domain.EmployeeRoleManager, Status: domain.EmployeeStatusActive}

	seed := func(f *ticketFixture, status domain.TicketStatus) *domain.Ticket {
		ticket := &domain.Ticket{
			ID:         "ticket-1",
			CompanyID:  "company-1",
			CustomerID: "customer-1",
			Status:     status,
			Priority:   domain.TicketPriorityMedium,
		}
		f.tickets.tickets[ticket.ID] = ticket
		return ticket
	}

	t.Run("Given an open ticket When resolving Then the timestamp is stamped and an event published", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusOpen)

		// When
		ticket, err := f.svc.UpdateTicketStatus(ctx, staff, "ticket-1", domain.TicketStatusResolved)

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.Status != domain.TicketStatusResolved || ticket.ResolvedAt == nil {
			t.Fatalf("expected resolved ticket with timestamp, got %+v", ticket)
		}
		if len(f.dispatcher.byType(events.EventTicketResolved)) != 1 {
			t.Fatal("expected a ticket_resolved event")
		}
	})

	t.Run("Given a closed ticket When reopening Then the move is rejected", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusClosed)

		// When
		_, err := f.svc.UpdateTicketStatus(ctx, staff, "ticket-1", domain.TicketStatusInProgress)

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})

	t.Run("Given any ticket When staff targets Overdue Then the move is forbidden", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusOpen)

		// When
		_, err := f.svc.UpdateTicketStatus(ctx, staff, "ticket-1", domain.TicketStatusOverdue)

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given a ticket of another company When updating Then access is denied", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusOpen)
		outsider := &domain.Employee{ID: "emp-9", CompanyID: "company-2", Role: domain.EmployeeRoleManager}

		// When
		_, err := f.svc.UpdateTicketStatus(ctx, outsider, "ticket-1", domain.TicketStatusResolved)

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given an overdue ticket When resolving Then the overlay is cleared forward", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusOverdue)

		// When
		ticket, err := f.svc.UpdateTicketStatus(ctx, staff, "ticket-1", domain.TicketStatusResolved)

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ticket.Status != domain.TicketStatusResolved {
			t.Fatalf("expected Resolved, got %s", ticket.Status)
		}
	})
}

func TestAddReply(t *testing.T) {
	ctx := context.Background()

	seed := func(f *ticketFixture) {
		f.tickets.tickets["ticket-1"] = &domain.Ticket{
			ID:         "ticket-1",
			CompanyID:  "company-1",
			CustomerID: "customer-1",
			Status:     domain.TicketStatusOpen,
		}
	}

	t.Run("Given the owning customer When replying Then the reply is recorded with the author", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f)
		actor := events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: strPtr("customer-1")}

		// When
		reply, err := f.svc.AddReply(ctx, actor, "ticket-1", "  Still down.  ")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Message != "Still down." {
			t.Fatalf("expected trimmed message, got %q", reply.Message)
		}
		if reply.AuthorType != domain.SubjectTypeCustomer || reply.AuthorID == nil || *reply.AuthorID != "customer-1" {
			t.Fatalf("expected customer author, got %+v", reply)
		}
	})

	t.Run("Given another customer When replying Then access is denied", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f)
		actor := events.Actor{Type: domain.SubjectTypeCustomer, CustomerID: strPtr("customer-2")}

		// When
		_, err := f.svc.AddReply(ctx, actor, "ticket-1", "hello")

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given a blank message When replying Then validation fails", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f)
		actor := events.Actor{Type: domain.SubjectTypeEmployee, EmployeeID: strPtr("emp-1")}

		// When
		_, err := f.svc.AddReply(ctx, actor, "ticket-1", "   ")

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})
}

func TestRateTicket(t *testing.T) {
	ctx := context.Background()

	seed := func(f *ticketFixture, status domain.TicketStatus) {
		f.tickets.tickets["ticket-1"] = &domain.Ticket{
			ID:         "ticket-1",
			CompanyID:  "company-1",
			CustomerID: "customer-1",
			Status:     status,
			AssignedTo: strPtr("emp-1"),
		}
	}

	t.Run("Given a resolved ticket When rating Then the resolving employee is credited", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusResolved)

		// When
		rating, err := f.svc.RateTicket(ctx, "customer-1", "ticket-1", 5, "quick fix")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rating.EmployeeID == nil || *rating.EmployeeID != "emp-1" {
			t.Fatalf("expected employee credit, got %+v", rating.EmployeeID)
		}
	})

	t.Run("Given an open ticket When rating Then the rating is rejected", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusOpen)

		// When
		_, err := f.svc.RateTicket(ctx, "customer-1", "ticket-1", 4, "")

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})

	t.Run("Given an already rated ticket When rating again Then the duplicate is rejected", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusClosed)
		if _, err := f.svc.RateTicket(ctx, "customer-1", "ticket-1", 4, ""); err != nil {
			t.Fatalf("first rating failed: %v", err)
		}

		// When
		_, err := f.svc.RateTicket(ctx, "customer-1", "ticket-1", 5, "")

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})

	t.Run("Given an out of range score When rating Then validation fails", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusResolved)

		// When
		_, err := f.svc.RateTicket(ctx, "customer-1", "ticket-1", 6, "")

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("Given another customer When rating Then access is denied", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		seed(f, domain.TicketStatusResolved)

		// When
		_, err := f.svc.RateTicket(ctx, "customer-2", "ticket-1", 3, "")

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})
}

func TestListStaffTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a technician When listing Then only their queue is visible", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		f.tickets.tickets["ticket-1"] = &domain.Ticket{ID: "ticket-1", CompanyID: "company-1", CustomerID: "c1", Status: domain.TicketStatusOpen, AssignedTo: strPtr("emp-1")}
		f.tickets.tickets["ticket-2"] = &domain.Ticket{ID: "ticket-2", CompanyID: "company-1", CustomerID: "c2", Status: domain.TicketStatusOpen, AssignedTo: strPtr("emp-2")}
		technician := &domain.Employee{ID: "emp-1", CompanyID: "company-1", Role: domain.EmployeeRoleTechnician}

		// When
		listed, err := f.svc.ListStaffTickets(ctx, technician, repository.TicketFilter{})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != "ticket-1" {
			t.Fatalf("expected only the technician's ticket, got %+v", listed)
		}
	})

	t.Run("Given a manager When listing Then the whole company queue is visible", func(t *testing.T) {
		// Given
		f := newTicketFixture()
		f.tickets.tickets["ticket-1"] = &domain.Ticket{ID: "ticket-1", CompanyID: "company-1", CustomerID: "c1", Status: domain.TicketStatusOpen, AssignedTo: strPtr("emp-1")}
		f.tickets.tickets["ticket-2"] = &domain.Ticket{ID: "ticket-2", CompanyID: "company-1", CustomerID: "c2", Status: domain.TicketStatusOpen, AssignedTo: strPtr("emp-2")}
		f.tickets.tickets["ticket-3"] = &domain.Ticket{ID: "ticket-3", CompanyID: "company-2", CustomerID: "c3", Status: domain.TicketStatusOpen}
		manager := &domain.Employee{ID: "emp-9", CompanyID: "company-1", Role: domain.EmployeeRoleManager}

		// When
		listed, err := f.svc.ListStaffTickets(ctx, manager, repository.TicketFilter{})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected 2 company tickets, got %d", len(listed))
		}
	})
}
