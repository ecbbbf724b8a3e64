package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/gateway"
	"github.com/spec-kit/isp-portal/internal/repository"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// HostedCheckout is the slice of the hosted-checkout client the checkout flow
// needs. Tests substitute a fake.
type HostedCheckout interface {
	MakePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.Session, error)
}

// TokenizedCheckoutFactory builds a per-company tokenized-checkout client
// from the company's merchant credentials.
type TokenizedCheckoutFactory func(creds domain.GatewayBCredentials) TokenizedCheckout

// TokenizedCheckout is the three-step provider protocol. Tests substitute a
// fake.
type TokenizedCheckout interface {
	GetToken(ctx context.Context) (string, error)
	CreatePayment(ctx context.Context, token string, amount float64, invoiceNumber, callbackURL string) (*gateway.CreatePaymentResponse, error)
	ExecutePayment(ctx context.Context, token, paymentID string) (*gateway.ExecutePaymentResponse, error)
}

// CourierStatus is the slice of the courier client the order tracking flow
// needs. Tests substitute a fake.
type CourierStatus interface {
	Status(ctx context.Context, courier, consignmentID string) (string, error)
}

// CheckoutService opens payment sessions for subscription orders, shop orders
// and invoices. The rule throughout: a gateway create failure leaves no order
// row behind, and a re-attempt silently abandons the prior session by
// overwriting its correlation columns.
type CheckoutService struct {
	orders        repository.OrderRepository
	productOrders repository.ProductOrderRepository
	products      repository.ProductRepository
	plans         repository.PlanRepository
	invoices      repository.InvoiceRepository
	companies     repository.CompanyRepository
	cart          *CartService
	hosted        HostedCheckout
	tokenized     TokenizedCheckoutFactory
	courier       CourierStatus
	notifier      *NotificationService
	appCfg        config.AppConfig
	gatewayACfg   config.GatewayAConfig
	gatewayBCfg   config.GatewayBConfig
	shopCfg       config.ShopConfig
	logger        *zap.Logger
}

// CheckoutDependencies bundles collaborators.
type CheckoutDependencies struct {
	OrderRepo        repository.OrderRepository
	ProductOrderRepo repository.ProductOrderRepository
	ProductRepo      repository.ProductRepository
	PlanRepo         repository.PlanRepository
	InvoiceRepo      repository.InvoiceRepository
	CompanyRepo      repository.CompanyRepository
	Cart             *CartService
	Hosted           HostedCheckout
	Tokenized        TokenizedCheckoutFactory
	Courier          CourierStatus
	Notifier         *NotificationService
	AppConfig        config.AppConfig
	GatewayAConfig   config.GatewayAConfig
	GatewayBConfig   config.GatewayBConfig
	ShopConfig       config.ShopConfig
	Logger           *zap.Logger
}

// NewCheckoutService constructs the service.
func NewCheckoutService(deps CheckoutDependencies) *CheckoutService {
	return &CheckoutService{
		orders:        deps.OrderRepo,
		productOrders: deps.ProductOrderRepo,
		products:      deps.ProductRepo,
		plans:         deps.PlanRepo,
		invoices:      deps.InvoiceRepo,
		companies:     deps.CompanyRepo,
		cart:          deps.Cart,
		hosted:        deps.Hosted,
		tokenized:     deps.Tokenized,
		courier:       deps.Courier,
		notifier:      deps.Notifier,
		appCfg:        deps.AppConfig,
		gatewayACfg:   deps.GatewayAConfig,
		gatewayBCfg:   deps.GatewayBConfig,
		shopCfg:       deps.ShopConfig,
		logger:        deps.Logger,
	}
}

// PlanCheckoutInput describes a subscription purchase request.
type PlanCheckoutInput struct {
	PlanID   string
	Details  domain.OrderCustomerDetails
	PayNow   bool
	ClientIP string
}

// CheckoutResult is handed back to the browser.
type CheckoutResult struct {
	OrderNumber string
	Amount      float64
	CheckoutURL string
}

// CheckoutPlan places a subscription order. Pay-now opens a hosted-checkout
// session first and only persists the order once the gateway accepted it, so
// a create failure leaves no row. Pay-later persists immediately and the
// customer settles through PayForOrder.
func (s *CheckoutService) CheckoutPlan(ctx context.Context, input PlanCheckoutInput) (*CheckoutResult, error) {
	if err := validateDetails(input.Details); err != nil {
		return nil, err
	}

	exists, err := s.orders.ExistsActiveByEmail(ctx, input.Details.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("an order for this email is already in progress", nil)
	}

	plan, err := s.plans.GetByID(ctx, input.PlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("plan", map[string]any{"plan_id": input.PlanID})
		}
		return nil, apperrors.MapError(err)
	}
	if !plan.IsActive {
		return nil, apperrors.NewValidationError("plan is not available", nil)
	}

	amount := plan.FinalPrice()
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     generateOrderNumber("ORD"),
		PlanID:          &plan.ID,
		CustomerDetails: input.Details,
		PlanSnapshot: domain.PlanSnapshot{
			Name:            plan.Name,
			Price:           plan.Price,
			DiscountPercent: plan.DiscountPercent,
			FinalPrice:      amount,
			Features:        plan.Features,
		},
		Status:    domain.OrderStatusPendingPayment,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := &CheckoutResult{OrderNumber: order.OrderNumber, Amount: amount}

	if input.PayNow {
		session, err := s.openHostedSession(ctx, order.OrderNumber, amount, input.Details, input.ClientIP,
			s.gatewayACfg.ReturnPath, s.gatewayACfg.CancelPath)
		if err != nil {
			return nil, err
		}
		order.GatewayTxID = &session.CorrelationID
		order.CheckoutURL = &session.CheckoutURL
		order.GatewayInitiated = true
		result.CheckoutURL = session.CheckoutURL
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.notifier.QueueOrderConfirmationEmail(input.Details.Email, order.OrderNumber, amount)
	return result, nil
}

// PayForOrder re-attempts payment for a pending order. The fresh session
// overwrites gateway_tx_id and checkout_url; the prior session is abandoned
// without telling the provider.
func (s *CheckoutService) PayForOrder(ctx context.Context, orderNumber, email, clientIP string) (*CheckoutResult, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_number": orderNumber})
		}
		return nil, apperrors.MapError(err)
	}
	if !strings.EqualFold(order.CustomerDetails.Email, email) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return nil, apperrors.NewConflict("order is not awaiting payment", map[string]any{"status": order.Status})
	}

	session, err := s.openHostedSession(ctx, order.OrderNumber, order.Amount, order.CustomerDetails, clientIP,
		s.gatewayACfg.ReturnPath, s.gatewayACfg.CancelPath)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateGatewaySession(ctx, order.ID, session.CorrelationID, session.CheckoutURL); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &CheckoutResult{
		OrderNumber: order.OrderNumber,
		Amount:      order.Amount,
		CheckoutURL: session.CheckoutURL,
	}, nil
}

// ListPlans returns the purchasable subscription packages.
func (s *CheckoutService) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return plans, nil
}

// TrackOrder looks up a subscription order for the email that placed it.
func (s *CheckoutService) TrackOrder(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_number": orderNumber})
		}
		return nil, apperrors.MapError(err)
	}
	if !strings.EqualFold(order.CustomerDetails.Email, email) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return order, nil
}

// ProductCheckoutInput describes a shop purchase request.
type ProductCheckoutInput struct {
	CustomerID     string
	Details        domain.OrderCustomerDetails
	InsideDhaka    bool
	PromoCode      string
	CashOnDelivery bool
	ClientIP       string
}

// CheckoutProducts converts the Redis cart into a shop order. Stock is
// reserved up front and restored when the gateway rejects the session.
func (s *CheckoutService) CheckoutProducts(ctx context.Context, input ProductCheckoutInput) (*CheckoutResult, error) {
	if err := validateDetails(input.Details); err != nil {
		return nil, err
	}

	cart, err := s.cart.Get(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, apperrors.NewValidationError("cart is empty", nil)
	}

	items, subtotal, err := s.reserveCartItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	release := func() {
		for _, item := range items {
			if restoreErr := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); restoreErr != nil {
				s.logger.Error("stock restore failed",
					zap.String("product_id", item.ProductID), zap.Error(restoreErr))
			}
		}
	}

	var (
		discount  float64
		promoUsed *string
	)
	if code := strings.TrimSpace(input.PromoCode); code != "" {
		promo, err := s.products.GetPromoByCode(ctx, code)
		if err != nil {
			release()
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown promo code", map[string]any{"code": code})
			}
			return nil, apperrors.MapError(err)
		}
		if err := promo.Validate(time.Now().UTC(), subtotal); err != nil {
			release()
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		discount = promo.Discount(subtotal)
		promoUsed = &promo.Code
	}

	shipping := s.shopCfg.ShippingOutsideDhaka
	if input.InsideDhaka {
		shipping = s.shopCfg.ShippingInsideDhaka
	}
	total := subtotal - discount + shipping

	now := time.Now().UTC()
	order := &domain.ProductOrder{
		ID:              uuid.NewString(),
		OrderNumber:     generateOrderNumber("SHP"),
		CustomerDetails: input.Details,
		Items:           items,
		ShippingCost:    shipping,
		DiscountAmount:  discount,
		PromoCode:       promoUsed,
		TotalAmount:     total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result := &CheckoutResult{OrderNumber: order.OrderNumber, Amount: total}

	if input.CashOnDelivery {
		order.Status = domain.ProductOrderStatusProcessingCOD
	} else {
		session, err := s.openHostedSession(ctx, order.OrderNumber, total, input.Details, input.ClientIP,
			s.gatewayACfg.ProductReturnURL, s.gatewayACfg.ProductCancelURL)
		if err != nil {
			release()
			return nil, err
		}
		order.Status = domain.ProductOrderStatusPendingPayment
		order.GatewayTxID = &session.CorrelationID
		order.CheckoutURL = &session.CheckoutURL
		result.CheckoutURL = session.CheckoutURL
	}

	if err := s.productOrders.Create(ctx, order); err != nil {
		release()
		return nil, apperrors.MapError(err)
	}

	// The cart's lines now live on the order; stock stays reserved until the
	// session settles or is abandoned.
	if err := s.cart.Clear(ctx, input.CustomerID); err != nil {
		s.logger.Warn("cart clear failed", zap.String("customer_id", input.CustomerID), zap.Error(err))
	}

	if input.CashOnDelivery {
		s.notifier.QueueOrderConfirmationEmail(input.Details.Email, order.OrderNumber, total)
	}
	return result, nil
}

// ListProducts returns the active shop catalog.
func (s *CheckoutService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return products, nil
}

// GetProduct fetches one shop item with its reviews.
func (s *CheckoutService) GetProduct(ctx context.Context, productID string) (*domain.Product, []*domain.ProductReview, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("product", map[string]any{"product_id": productID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	reviews, err := s.products.ListReviewsByProduct(ctx, product.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return product, reviews, nil
}

// AddProductReview records customer feedback on a shop item.
func (s *CheckoutService) AddProductReview(ctx context.Context, customerID, productID string, rating int, comment string) (*domain.ProductReview, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"product_id": productID})
		}
		return nil, apperrors.MapError(err)
	}

	review := &domain.ProductReview{
		ProductID:  productID,
		CustomerID: customerID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}
	if err := s.products.CreateReview(ctx, review); err != nil {
		return nil, apperrors.MapError(err)
	}
	return review, nil
}

// ListShopOrders returns a customer's shop orders by contact email.
func (s *CheckoutService) ListShopOrders(ctx context.Context, email string) ([]*domain.ProductOrder, error) {
	orders, err := s.productOrders.ListByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

// ShopOrderStatus pairs a shop order with the courier's live delivery state.
// LiveCourierStatus is empty when the order has not shipped or the provider
// could not be reached.
type ShopOrderStatus struct {
	Order             *domain.ProductOrder
	LiveCourierStatus string
}

// TrackShopOrder looks up a shop order for the email that placed it and, once
// a courier consignment exists, asks the provider for its live status. A
// provider failure degrades to the stored order state, never to an error.
func (s *CheckoutService) TrackShopOrder(ctx context.Context, orderNumber, email string) (*ShopOrderStatus, error) {
	order, err := s.productOrders.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_number": orderNumber})
		}
		return nil, apperrors.MapError(err)
	}
	if !strings.EqualFold(order.CustomerDetails.Email, email) {
		return nil, apperrors.NewForbidden("order does not belong to this email")
	}

	status := &ShopOrderStatus{Order: order}
	if s.courier != nil && order.CourierName != nil && order.TrackingCode != nil {
		live, err := s.courier.Status(ctx, *order.CourierName, *order.TrackingCode)
		if err != nil {
			s.logger.Warn("live courier status unavailable",
				zap.String("order_number", order.OrderNumber),
				zap.String("courier", *order.CourierName),
				zap.Error(err))
		} else {
			status.LiveCourierStatus = live
		}
	}
	return status, nil
}

// ListInvoices returns a customer's subscription bills, newest first.
func (s *CheckoutService) ListInvoices(ctx context.Context, customerID string) ([]*domain.Invoice, error) {
	invoices, err := s.invoices.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return invoices, nil
}

// InitiateInvoicePayment opens a tokenized-checkout session for a pending
// invoice using the company's own merchant credentials. Nothing is persisted
// until the provider accepted the session.
func (s *CheckoutService) InitiateInvoicePayment(ctx context.Context, customerID, invoiceID string) (string, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("invoice", map[string]any{"invoice_id": invoiceID})
		}
		return "", apperrors.MapError(err)
	}
	if invoice.CustomerID != customerID {
		return "", apperrors.NewForbidden("access denied")
	}
	if invoice.Status != domain.InvoiceStatusPending {
		return "", apperrors.NewConflict("invoice is not payable", map[string]any{"status": invoice.Status})
	}

	company, err := s.companies.GetByID(ctx, invoice.CompanyID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if !company.GatewayB.Enabled {
		return "", apperrors.NewValidationError("online payment is not enabled for this provider", nil)
	}

	client := s.tokenized(company.GatewayB)
	token, err := client.GetToken(ctx)
	if err != nil {
		return "", err
	}

	callbackURL := s.appCfg.AbsoluteURL(s.gatewayBCfg.CallbackPath)
	resp, err := client.CreatePayment(ctx, token, invoice.Amount, invoice.InvoiceNumber, callbackURL)
	if err != nil {
		return "", err
	}

	if err := s.invoices.SetGatewayPaymentID(ctx, invoice.ID, resp.PaymentID); err != nil {
		return "", apperrors.MapError(err)
	}
	return resp.BkashURL, nil
}

func (s *CheckoutService) reserveCartItems(ctx context.Context, cart Cart) ([]domain.ProductOrderItem, float64, error) {
	var (
		items    []domain.ProductOrderItem
		subtotal float64
		reserved []domain.ProductOrderItem
	)

	release := func() {
		for _, item := range reserved {
			if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				s.logger.Error("stock restore failed",
					zap.String("product_id", item.ProductID), zap.Error(err))
			}
		}
	}

	for productID, quantity := range cart {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			release()
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, 0, apperrors.NewValidationError("a cart item is no longer available", map[string]any{"product_id": productID})
			}
			return nil, 0, apperrors.MapError(err)
		}
		if !product.IsActive {
			release()
			return nil, 0, apperrors.NewValidationError(fmt.Sprintf("%s is no longer available", product.Name), nil)
		}

		ok, err := s.products.DecrementStock(ctx, product.ID, quantity)
		if err != nil {
			release()
			return nil, 0, apperrors.MapError(err)
		}
		if !ok {
			release()
			return nil, 0, apperrors.NewConflict(fmt.Sprintf("not enough stock for %s", product.Name), nil)
		}

		unit := product.FinalPrice()
		line := domain.ProductOrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: unit,
			Quantity:  quantity,
			LineTotal: unit * float64(quantity),
		}
		items = append(items, line)
		reserved = append(reserved, line)
		subtotal += line.LineTotal
	}
	return items, subtotal, nil
}

func (s *CheckoutService) openHostedSession(ctx context.Context, orderNumber string, amount float64, details domain.OrderCustomerDetails, clientIP, returnPath, cancelPath string) (*gateway.Session, error) {
	if !s.gatewayACfg.Enabled {
		return nil, apperrors.NewValidationError("online payment is not enabled", nil)
	}
	return s.hosted.MakePayment(ctx, gateway.PaymentRequest{
		Amount:          amount,
		OrderID:         orderNumber,
		CustomerName:    details.FullName,
		CustomerAddress: details.Address,
		CustomerEmail:   details.Email,
		CustomerPhone:   details.Phone,
		ClientIP:        clientIP,
		ReturnURL:       s.appCfg.AbsoluteURL(returnPath),
		CancelURL:       s.appCfg.AbsoluteURL(cancelPath),
	})
}

func validateDetails(details domain.OrderCustomerDetails) error {
	if strings.TrimSpace(details.FullName) == "" {
		return apperrors.NewValidationError("full name is required", nil)
	}
	email := strings.TrimSpace(details.Email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.NewValidationError("a valid email is required", nil)
	}
	if strings.TrimSpace(details.Phone) == "" {
		return apperrors.NewValidationError("phone number is required", nil)
	}
	return nil
}

func generateOrderNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
