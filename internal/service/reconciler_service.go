package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/gateway"
	"github.com/spec-kit/isp-portal/internal/observability"
	"github.com/spec-kit/isp-portal/internal/repository"
	"github.com/spec-kit/isp-portal/internal/worker"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// PaymentVerifier resolves the final state of a hosted-checkout session.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, correlationID string) (*gateway.Result, error)
}

// ReturnOutcome tells the HTTP layer what to show the returning customer.
type ReturnOutcome struct {
	Settled   bool
	Duplicate bool
	Reference string
	Message   string
}

// ReconcilerService matches asynchronous gateway callbacks to pending orders
// and invoices and advances their state exactly once. The authoritative guard
// is a conditional UPDATE on the pending status; a redsync mutex in front of
// it keeps concurrent duplicate callbacks from double-running the gateway
// verification. Side effects run only after the transition committed, each
// caught and logged independently.
type ReconcilerService struct {
	orders        repository.OrderRepository
	productOrders repository.ProductOrderRepository
	invoices      repository.InvoiceRepository
	products      repository.ProductRepository
	companies     repository.CompanyRepository
	verifier      PaymentVerifier
	tokenized     TokenizedCheckoutFactory
	reactivation  *ReactivationService
	notifier      *NotificationService
	dispatcher    events.Dispatcher
	locks         *redsync.Redsync
	queue         *worker.Queue
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// ReconcilerDependencies bundles collaborators.
type ReconcilerDependencies struct {
	OrderRepo        repository.OrderRepository
	ProductOrderRepo repository.ProductOrderRepository
	InvoiceRepo      repository.InvoiceRepository
	ProductRepo      repository.ProductRepository
	CompanyRepo      repository.CompanyRepository
	Verifier         PaymentVerifier
	Tokenized        TokenizedCheckoutFactory
	Reactivation     *ReactivationService
	Notifier         *NotificationService
	Dispatcher       events.Dispatcher
	Locks            *redsync.Redsync
	Queue            *worker.Queue
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewReconcilerService constructs the service.
func NewReconcilerService(deps ReconcilerDependencies) *ReconcilerService {
	return &ReconcilerService{
		orders:        deps.OrderRepo,
		productOrders: deps.ProductOrderRepo,
		invoices:      deps.InvoiceRepo,
		products:      deps.ProductRepo,
		companies:     deps.CompanyRepo,
		verifier:      deps.Verifier,
		tokenized:     deps.Tokenized,
		reactivation:  deps.Reactivation,
		notifier:      deps.Notifier,
		dispatcher:    deps.Dispatcher,
		locks:         deps.Locks,
		queue:         deps.Queue,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
}

// HandleHostedReturn processes Provider A's return redirect. A correlation id
// carrying the failure prefix means the customer cancelled or the payment
// failed: the pending gateway-initiated row is deleted and no order state is
// touched beyond that.
func (s *ReconcilerService) HandleHostedReturn(ctx context.Context, correlationID string) (*ReturnOutcome, error) {
	if correlationID == "" || strings.HasPrefix(correlationID, gateway.FailedCorrelationPrefix) {
		s.metrics.RecordPayment("gateway_a", "canceled")
		return &ReturnOutcome{Message: "Payment was cancelled or failed. Please try again."}, nil
	}

	result, err := s.verifier.VerifyPayment(ctx, correlationID)
	if err != nil {
		s.metrics.RecordPayment("gateway_a", "verify_error")
		return nil, err
	}
	if result.Status != gateway.StatusCompleted {
		s.metrics.RecordPayment("gateway_a", "unverified")
		s.CleanupAbandonedSession(ctx, correlationID)
		return &ReturnOutcome{Message: "Payment could not be verified. Please try again."}, nil
	}

	if outcome, err := s.settleSubscriptionOrder(ctx, correlationID, result); !errors.Is(err, pgx.ErrNoRows) {
		return outcome, err
	}
	if outcome, err := s.settleProductOrder(ctx, correlationID, result); !errors.Is(err, pgx.ErrNoRows) {
		return outcome, err
	}

	// Verified money with no matching pending row is a data-integrity problem,
	// not a benign duplicate.
	s.logger.Error("verified payment matches no order",
		zap.String("correlation_id", correlationID),
		zap.String("transaction_id", result.TransactionID))
	s.metrics.RecordPayment("gateway_a", "orphaned")
	return nil, apperrors.NewNotFound("order", map[string]any{"correlation_id": correlationID})
}

func (s *ReconcilerService) settleSubscriptionOrder(ctx context.Context, correlationID string, result *gateway.Result) (*ReturnOutcome, error) {
	order, err := s.orders.GetByGatewayTxID(ctx, correlationID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(ctx, "payment:order:"+order.ID)
	defer unlock()

	moved, err := s.orders.TransitionPaid(ctx, order.ID, result.Method, result.TransactionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !moved {
		s.metrics.RecordPayment("gateway_a", "duplicate")
		return &ReturnOutcome{
			Settled:   true,
			Duplicate: true,
			Reference: order.OrderNumber,
			Message:   "This payment was already recorded.",
		}, nil
	}

	s.metrics.RecordPayment("gateway_a", "settled")
	s.afterOrderSettled(ctx, order, result)
	return &ReturnOutcome{
		Settled:   true,
		Reference: order.OrderNumber,
		Message:   "Payment received. Your order is awaiting review.",
	}, nil
}

func (s *ReconcilerService) settleProductOrder(ctx context.Context, correlationID string, result *gateway.Result) (*ReturnOutcome, error) {
	order, err := s.productOrders.GetByGatewayTxID(ctx, correlationID)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(ctx, "payment:shop:"+order.ID)
	defer unlock()

	moved, err := s.productOrders.TransitionPaid(ctx, order.ID, result.Method, result.TransactionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !moved {
		s.metrics.RecordPayment("gateway_a", "duplicate")
		return &ReturnOutcome{
			Settled:   true,
			Duplicate: true,
			Reference: order.OrderNumber,
			Message:   "This payment was already recorded.",
		}, nil
	}

	s.metrics.RecordPayment("gateway_a", "settled")
	s.notifier.QueueReceiptEmail(order.CustomerDetails.Email, order.OrderNumber, order.TotalAmount)
	return &ReturnOutcome{
		Settled:   true,
		Reference: order.OrderNumber,
		Message:   "Payment received. Your order is being processed.",
	}, nil
}

// HandleTokenizedCallback processes Provider B's redirect. Only a success
// status executes the payment; a payment id with no matching invoice is a
// benign no-op, the usual shape of a duplicate callback.
func (s *ReconcilerService) HandleTokenizedCallback(ctx context.Context, paymentID, status string) (*ReturnOutcome, error) {
	if status != "success" {
		s.metrics.RecordPayment("gateway_b", "canceled")
		return &ReturnOutcome{Message: "Payment was cancelled. Your invoice is unchanged."}, nil
	}
	if paymentID == "" {
		return nil, apperrors.NewValidationError("paymentID is required", nil)
	}

	invoice, err := s.invoices.GetByGatewayPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordPayment("gateway_b", "duplicate")
			return &ReturnOutcome{
				Settled:   true,
				Duplicate: true,
				Message:   "This payment was already processed.",
			}, nil
		}
		return nil, apperrors.MapError(err)
	}

	company, err := s.companies.GetByID(ctx, invoice.CompanyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	client := s.tokenized(company.GatewayB)
	token, err := client.GetToken(ctx)
	if err != nil {
		s.metrics.RecordPayment("gateway_b", "verify_error")
		return nil, err
	}
	exec, err := client.ExecutePayment(ctx, token, paymentID)
	if err != nil {
		s.metrics.RecordPayment("gateway_b", "verify_error")
		return nil, err
	}

	return s.settleInvoice(ctx, invoice, "bKash", exec.TrxID)
}

func (s *ReconcilerService) settleInvoice(ctx context.Context, invoice *domain.Invoice, method, transactionID string) (*ReturnOutcome, error) {
	unlock := s.lock(ctx, "payment:invoice:"+invoice.ID)
	defer unlock()

	paid, err := s.invoices.MarkPaid(ctx, invoice.ID, method, transactionID, time.Now().UTC())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !paid {
		s.metrics.RecordPayment("gateway_b", "duplicate")
		return &ReturnOutcome{
			Settled:   true,
			Duplicate: true,
			Reference: invoice.InvoiceNumber,
			Message:   "This invoice was already paid.",
		}, nil
	}

	s.metrics.RecordPayment("gateway_b", "settled")
	s.afterInvoiceSettled(ctx, invoice, method, transactionID)
	return &ReturnOutcome{
		Settled:   true,
		Reference: invoice.InvoiceNumber,
		Message:   "Payment received. Thank you.",
	}, nil
}

// CleanupAbandonedSession deletes the pending row an abandoned or failed
// checkout left behind, restoring reserved shop stock. Committed paid orders
// are never touched; the deletes are keyed on the pending status.
func (s *ReconcilerService) CleanupAbandonedSession(ctx context.Context, correlationID string) {
	if correlationID == "" {
		return
	}

	if err := s.orders.DeleteByGatewayTxID(ctx, correlationID); err != nil {
		s.logger.Error("abandoned order cleanup failed",
			zap.String("correlation_id", correlationID), zap.Error(err))
	}

	order, err := s.productOrders.DeleteByGatewayTxID(ctx, correlationID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("abandoned shop order cleanup failed",
				zap.String("correlation_id", correlationID), zap.Error(err))
		}
		return
	}
	for _, item := range order.Items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock restore failed",
				zap.String("product_id", item.ProductID), zap.Error(err))
		}
	}
}

// afterOrderSettled runs subscription-order side effects. Each is independent:
// a failure is logged and the rest still run.
func (s *ReconcilerService) afterOrderSettled(ctx context.Context, order *domain.Order, result *gateway.Result) {
	// Subscription orders belong to the platform, not a tenant, so the alert
	// goes to the platform admin inbox rather than a company notification row.
	s.notifier.QueuePlatformAdminEmail(
		"Payment received",
		fmt.Sprintf("Order %s (%s) paid %.2f BDT via %s.", order.OrderNumber, order.PlanSnapshot.Name, order.Amount, result.Method))

	s.notifier.QueueReceiptEmail(order.CustomerDetails.Email, order.OrderNumber, order.Amount)

	s.publishPayment(ctx, "", events.PaymentReceivedPayload{
		Reference:     order.OrderNumber,
		ReferenceType: "order",
		Amount:        order.Amount,
		Method:        result.Method,
		TransactionID: result.TransactionID,
		PayerEmail:    order.CustomerDetails.Email,
	})
}

// afterInvoiceSettled runs invoice side effects: admin notification, receipt
// email and exactly one reactivation attempt, each caught on its own.
func (s *ReconcilerService) afterInvoiceSettled(ctx context.Context, invoice *domain.Invoice, method, transactionID string) {
	if err := s.notifier.NotifyAdmin(ctx, invoice.CompanyID,
		"Invoice paid",
		fmt.Sprintf("Invoice %s paid %.2f BDT via %s.", invoice.InvoiceNumber, invoice.Amount, method),
		"payment", &invoice.ID,
	); err != nil {
		s.logger.Error("admin notification failed",
			zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
	}

	customerID := invoice.CustomerID
	s.enqueue("invoice_receipt_email", func(jobCtx context.Context) error {
		customer, err := s.reactivation.customers.GetByID(jobCtx, customerID)
		if err != nil {
			return err
		}
		s.notifier.QueueReceiptEmail(customer.Email, invoice.InvoiceNumber, invoice.Amount)
		return nil
	})

	s.enqueue("service_reactivation", func(jobCtx context.Context) error {
		ok, message := s.reactivation.Reactivate(jobCtx, customerID)
		s.logger.Info("service reactivation attempted",
			zap.String("customer_id", customerID),
			zap.Bool("ok", ok),
			zap.String("message", message))
		return nil
	})

	s.publishPayment(ctx, invoice.CompanyID, events.PaymentReceivedPayload{
		Reference:     invoice.InvoiceNumber,
		ReferenceType: "invoice",
		Amount:        invoice.Amount,
		Method:        method,
		TransactionID: transactionID,
	})
}

func (s *ReconcilerService) publishPayment(ctx context.Context, companyID string, payload events.PaymentReceivedPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPaymentReceived,
		CompanyID: companyID,
		Actor:     events.SystemActor(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// lock takes a best-effort distributed mutex. Lock failure is tolerated
// because the conditional status UPDATE remains the authoritative guard.
func (s *ReconcilerService) lock(ctx context.Context, name string) func() {
	if s.locks == nil {
		return func() {}
	}
	mutex := s.locks.NewMutex(name, redsync.WithExpiry(8*time.Second))
	if err := mutex.LockContext(ctx); err != nil {
		s.logger.Warn("payment lock unavailable", zap.String("lock", name), zap.Error(err))
		return func() {}
	}
	return func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			s.logger.Warn("payment lock release failed", zap.String("lock", name), zap.Error(err))
		}
	}
}

func (s *ReconcilerService) enqueue(name string, run func(ctx context.Context) error) {
	if s.queue == nil {
		if err := run(context.Background()); err != nil {
			s.logger.Error("side effect failed", zap.String("job", name), zap.Error(err))
		}
		return
	}
	if err := s.queue.Enqueue(worker.Job{Name: name, Run: run}); err != nil {
		s.logger.Error("side effect dropped", zap.String("job", name), zap.Error(err))
	}
}
