package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/observability"
	"github.com/spec-kit/isp-portal/internal/repository"
)

// SLAService computes ticket due timestamps and runs the periodic breach
// sweep. All time arithmetic happens in UTC; a local-time computation would
// drift against the stored timestamps and flag breaches early or late.
type SLAService struct {
	tickets    repository.TicketRepository
	companies  repository.CompanyRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	TicketRepo  repository.TicketRepository
	CompanyRepo repository.CompanyRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{
		tickets:    deps.TicketRepo,
		companies:  deps.CompanyRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// TableForCompany returns the company's SLA override, or the default table
// when the company carries none or cannot be read.
func (s *SLAService) TableForCompany(ctx context.Context, companyID string) domain.SLATable {
	table, err := s.companies.GetSLAConfig(ctx, companyID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("sla config lookup failed, using defaults",
				zap.String("company_id", companyID), zap.Error(err))
		}
		return domain.DefaultSLATable()
	}
	if len(table) == 0 {
		return domain.DefaultSLATable()
	}
	return table
}

// DueAt computes created_at + SLA(priority) in UTC.
func DueAt(table domain.SLATable, priority domain.TicketPriority, createdAt time.Time) time.Time {
	return createdAt.UTC().Add(time.Duration(table.Hours(priority)) * time.Hour)
}

// SweepBreaches flags every non-terminal ticket past its due timestamp as
// Overdue and returns the number flagged. The sweep is idempotent: a ticket
// already Overdue is excluded by the status filter, so re-running never
// re-flags or re-notifies.
func (s *SLAService) SweepBreaches(ctx context.Context, now time.Time) (int, error) {
	breached, err := s.tickets.ListBreached(ctx, now.UTC())
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, ticket := range breached {
		ok, err := s.tickets.MarkOverdue(ctx, ticket.ID)
		if err != nil {
			s.logger.Error("overdue transition failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		if !ok {
			// lost the race to a concurrent sweep or a resolve
			continue
		}
		flagged++

		s.publishOverdue(ctx, &ticket)
	}

	s.metrics.RecordSweep(flagged)
	return flagged, nil
}

func (s *SLAService) publishOverdue(ctx context.Context, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketOverdue,
		CompanyID: ticket.CompanyID,
		Actor:     events.SystemActor(),
		Timestamp: time.Now().UTC(),
		Payload: events.TicketOverduePayload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			DueAt:        ticket.DueAt,
		},
	})
}
