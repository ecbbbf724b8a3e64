package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/repository"
	"github.com/spec-kit/isp-portal/internal/worker"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// Mailer delivers outbound email. Delivery is fire-and-forget from the
// portal's perspective; errors surface only in logs and metrics.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// logMailer records outbound mail without delivering it. It stands in until
// an SMTP or API transport is configured, and in tests.
type logMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("outbound email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

// NotificationService turns domain events into admin notification rows and
// queued emails. Every side effect runs on the worker queue; a slow mail
// provider never blocks the action that triggered it.
type NotificationService struct {
	notifications repository.NotificationRepository
	employees     repository.EmployeeRepository
	customers     repository.CustomerRepository
	dispatcher    events.Dispatcher
	queue         *worker.Queue
	mailer        Mailer
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	EmployeeRepo     repository.EmployeeRepository
	CustomerRepo     repository.CustomerRepository
	Dispatcher       events.Dispatcher
	Queue            *worker.Queue
	Mailer           Mailer
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		employees:     deps.EmployeeRepo,
		customers:     deps.CustomerRepo,
		dispatcher:    deps.Dispatcher,
		queue:         deps.Queue,
		mailer:        deps.Mailer,
		logger:        deps.Logger,
		cfg:           deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketOverdue, n.handleTicketOverdue)
	n.dispatcher.Subscribe(events.EventPaymentReceived, n.handlePaymentReceived)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.EmployeeID == nil {
		return nil
	}
	employeeID := *payload.EmployeeID
	ticketID := payload.TicketID

	n.enqueue("ticket_assignment_email", func(jobCtx context.Context) error {
		employee, err := n.employees.GetByID(jobCtx, employeeID)
		if err != nil {
			return err
		}
		subject := "New ticket assigned to you"
		body := fmt.Sprintf("Ticket %s has been assigned to you.", ticketID)
		return n.mailer.Send(jobCtx, employee.Email, subject, body)
	})
	return nil
}

func (n *NotificationService) handleTicketOverdue(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOverduePayload)
	if !ok {
		return nil
	}

	if err := n.NotifyAdmin(ctx, event.CompanyID,
		"Ticket SLA breached",
		fmt.Sprintf("Ticket %s passed its due time (%s).", payload.TicketNumber, payload.DueAt.Format("2006-01-02 15:04 MST")),
		"sla_breach", &payload.TicketID,
	); err != nil {
		n.logger.Error("admin notification failed",
			zap.String("ticket_id", payload.TicketID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handlePaymentReceived(ctx context.Context, event events.Event) error {
	n.logger.Info("payment received",
		zap.String("company_id", event.CompanyID),
		zap.Any("payload", event.Payload))
	return nil
}

// NotifyAdmin persists an in-app alert for company operators.
func (n *NotificationService) NotifyAdmin(ctx context.Context, companyID, title, message, notifType string, relatedID *string) error {
	return n.notifications.Create(ctx, &domain.AdminNotification{
		CompanyID: companyID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		RelatedID: relatedID,
	})
}

// ListUnread returns a company's unread in-app alerts.
func (n *NotificationService) ListUnread(ctx context.Context, companyID string) ([]*domain.AdminNotification, error) {
	notifications, err := n.notifications.ListUnreadByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notifications, nil
}

// MarkRead flags one alert as seen.
func (n *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := n.notifications.MarkRead(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// QueueReceiptEmail schedules a payment receipt to the payer.
func (n *NotificationService) QueueReceiptEmail(to, reference string, amount float64) {
	if strings.TrimSpace(to) == "" {
		return
	}
	n.enqueue("receipt_email", func(jobCtx context.Context) error {
		subject := fmt.Sprintf("Payment receipt for %s", reference)
		body := fmt.Sprintf("We received your payment of %.2f BDT for %s. Thank you.", amount, reference)
		return n.mailer.Send(jobCtx, to, subject, body)
	})
}

// QueueReactivationEmail tells a previously suspended customer their service
// is back.
func (n *NotificationService) QueueReactivationEmail(customerID string) {
	n.enqueue("reactivation_email", func(jobCtx context.Context) error {
		customer, err := n.customers.GetByID(jobCtx, customerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		subject := "Your internet service has been reactivated"
		body := fmt.Sprintf("Hi %s, your connection is active again. Thank you for your payment.", customer.FullName)
		return n.mailer.Send(jobCtx, customer.Email, subject, body)
	})
}

// QueuePlatformAdminEmail alerts the platform operator inbox.
func (n *NotificationService) QueuePlatformAdminEmail(subject, body string) {
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return
	}
	to := n.cfg.AdminEmail
	n.enqueue("platform_admin_email", func(jobCtx context.Context) error {
		return n.mailer.Send(jobCtx, to, subject, body)
	})
}

// QueueOrderConfirmationEmail acknowledges a placed order.
func (n *NotificationService) QueueOrderConfirmationEmail(to, orderNumber string, amount float64) {
	if strings.TrimSpace(to) == "" {
		return
	}
	n.enqueue("order_confirmation_email", func(jobCtx context.Context) error {
		subject := fmt.Sprintf("Order %s confirmed", orderNumber)
		body := fmt.Sprintf("Your order %s totaling %.2f BDT has been received and is being processed.", orderNumber, amount)
		return n.mailer.Send(jobCtx, to, subject, body)
	})
}

func (n *NotificationService) enqueue(name string, run func(ctx context.Context) error) {
	if n.queue == nil {
		return
	}
	if err := n.queue.Enqueue(worker.Job{Name: name, Run: run}); err != nil {
		n.logger.Warn("notification job dropped", zap.String("job", name), zap.Error(err))
	}
}
