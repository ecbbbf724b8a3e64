package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/repository"
)

// AssignmentService picks the least-loaded eligible employee for a new
// ticket.
type AssignmentService struct {
	employees repository.EmployeeRepository
	tickets   repository.TicketRepository
	logger    *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	TicketRepo   repository.TicketRepository
	Logger       *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		employees: deps.EmployeeRepo,
		tickets:   deps.TicketRepo,
		logger:    deps.Logger,
	}
}

// PickAssignee selects the Active employee in the zone with the fewest
// tickets in Open or In Progress. Ties break to the lowest employee id; the
// candidate list arrives ordered by id and the strict comparison keeps the
// earlier candidate. Returns nil when no Active employee serves the zone,
// which is a tolerated degraded outcome, not an error.
func (s *AssignmentService) PickAssignee(ctx context.Context, companyID string, zoneID *string) (*domain.Employee, error) {
	if zoneID == nil {
		return nil, nil
	}

	candidates, err := s.employees.ListActiveByZone(ctx, companyID, *zoneID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var (
		best     *domain.Employee
		bestLoad int
	)
	for i := range candidates {
		load, err := s.tickets.CountOpenByEmployee(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		if best == nil || load < bestLoad {
			best = &candidates[i]
			bestLoad = load
		}
	}
	return best, nil
}
