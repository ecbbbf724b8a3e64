package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/repository"
	"github.com/spec-kit/isp-portal/internal/routerapi"
)

// ReactivationService restores a customer's connection after a confirmed
// payment. It never fails the payment flow: every outcome is (ok, message)
// and router trouble degrades to a message for the operator.
type ReactivationService struct {
	customers repository.CustomerRepository
	companies repository.CompanyRepository
	router    routerapi.Client
	notifier  *NotificationService
	cfg       config.RouterConfig
	logger    *zap.Logger
}

// ReactivationDependencies bundles collaborators.
type ReactivationDependencies struct {
	CustomerRepo repository.CustomerRepository
	CompanyRepo  repository.CompanyRepository
	Router       routerapi.Client
	Notifier     *NotificationService
	Config       config.RouterConfig
	Logger       *zap.Logger
}

// NewReactivationService constructs the service.
func NewReactivationService(deps ReactivationDependencies) *ReactivationService {
	return &ReactivationService{
		customers: deps.CustomerRepo,
		companies: deps.CompanyRepo,
		router:    deps.Router,
		notifier:  deps.Notifier,
		cfg:       deps.Config,
		logger:    deps.Logger,
	}
}

// Reactivate marks the customer Active, pushes next_payment_date out thirty
// days and re-enables the PPPoE secret on the company router. A customer who
// was Suspended also gets a reactivation email. Missing PPPoE or router
// settings degrade to ok with an explanatory message.
func (s *ReactivationService) Reactivate(ctx context.Context, customerID string) (bool, string) {
	nextPayment := time.Now().UTC().AddDate(0, 0, 30)

	previousStatus, err := s.customers.MarkActive(ctx, customerID, nextPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Sprintf("customer %s not found", customerID)
		}
		s.logger.Error("reactivation status update failed",
			zap.String("customer_id", customerID), zap.Error(err))
		return false, "could not update customer status"
	}

	if previousStatus == domain.CustomerStatusSuspended {
		s.notifier.QueueReactivationEmail(customerID)
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Error("customer reload failed after reactivation",
			zap.String("customer_id", customerID), zap.Error(err))
		return true, "service marked active; router step skipped"
	}

	if !s.cfg.Enabled {
		return true, "service marked active; router reactivation disabled"
	}
	if customer.PPPoEUsername == nil || *customer.PPPoEUsername == "" {
		return true, "service marked active; no PPPoE username on file"
	}

	company, err := s.companies.GetByID(ctx, customer.CompanyID)
	if err != nil {
		s.logger.Error("company lookup failed during reactivation",
			zap.String("company_id", customer.CompanyID), zap.Error(err))
		return true, "service marked active; router settings unavailable"
	}
	if company.Router.IP == "" {
		return true, "service marked active; company has no router configured"
	}

	routerCtx := ctx
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		routerCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	if err := s.router.EnablePPPoE(routerCtx, company.Router, *customer.PPPoEUsername); err != nil {
		s.logger.Error("router pppoe enable failed",
			zap.String("customer_id", customerID),
			zap.String("router_ip", company.Router.IP),
			zap.Error(err))
		return true, "service marked active; router command failed and needs manual attention"
	}
	return true, "service reactivated"
}
