package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
)

type checkoutFixture struct {
	orders        *mockOrderRepo
	productOrders *mockProductOrderRepo
	products      *mockProductRepo
	plans         *mockPlanRepo
	invoices      *mockInvoiceRepo
	companies     *mockCompanyRepo
	hosted        *mockHostedGateway
	tokenized     *mockTokenizedClient
	courier       *mockCourier
	svc           *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders:        newMockOrderRepo(),
		productOrders: newMockProductOrderRepo(),
		products:      newMockProductRepo(),
		plans:         newMockPlanRepo(),
		invoices:      newMockInvoiceRepo(),
		companies:     newMockCompanyRepo(),
		hosted:        &mockHostedGateway{},
		tokenized:     &mockTokenizedClient{},
		courier:       &mockCourier{},
	}

	notifier := NewNotificationService(NotificationDependencies{
		NotificationRepo: &mockNotificationRepo{},
		EmployeeRepo:     newMockEmployeeRepo(),
		CustomerRepo:     newMockCustomerRepo(),
		Mailer:           &mockMailer{},
		Logger:           zap.NewNop(),
	})
	f.svc = NewCheckoutService(CheckoutDependencies{
		OrderRepo:        f.orders,
		ProductOrderRepo: f.productOrders,
		ProductRepo:      f.products,
		PlanRepo:         f.plans,
		InvoiceRepo:      f.invoices,
		CompanyRepo:      f.companies,
		Hosted:           f.hosted,
		Tokenized: func(creds domain.GatewayBCredentials) TokenizedCheckout {
			return f.tokenized
		},
		Courier:   f.courier,
		Notifier:  notifier,
		AppConfig: config.AppConfig{BaseURL: "https://portal.example"},
		GatewayAConfig: config.GatewayAConfig{
			Enabled:          true,
			ReturnPath:       "/payments/return",
			CancelPath:       "/payments/cancel",
			ProductReturnURL: "/payments/product/return",
			ProductCancelURL: "/payments/product/cancel",
		},
		GatewayBConfig: config.GatewayBConfig{CallbackPath: "/payments/bkash/callback"},
		ShopConfig:     config.ShopConfig{ShippingInsideDhaka: 60, ShippingOutsideDhaka: 120},
		Logger:         zap.NewNop(),
	})
	return f
}

func validDetails() domain.OrderCustomerDetails {
	return domain.OrderCustomerDetails{
		FullName: "Rahim Uddin",
		Email:    "rahim@example.com",
		Phone:    "01700000000",
		Address:  "Mirpur, Dhaka",
	}
}

func TestCheckoutPlan(t *testing.T) {
	ctx := context.Background()

	seedPlan := func(f *checkoutFixture, active bool) {
		f.plans.plans["plan-1"] = &domain.Plan{
			ID:              "plan-1",
			Name:            "Home 40",
			Price:           1000,
			DiscountPercent: 10,
			IsActive:        active,
		}
	}

	t.Run("Given pay now When checking out Then the order persists with a live session", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, true)

		// When
		result, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: validDetails(), PayNow: true})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Amount != 900 {
			t.Fatalf("expected discounted amount 900, got %.2f", result.Amount)
		}
		if result.CheckoutURL == "" {
			t.Fatal("expected a checkout URL")
		}
		if len(f.orders.created) != 1 {
			t.Fatalf("expected 1 order, got %d", len(f.orders.created))
		}
		order := f.orders.created[0]
		if !order.GatewayInitiated || order.GatewayTxID == nil {
			t.Fatalf("expected a gateway-initiated order with a session, got %+v", order)
		}
		if order.PlanSnapshot.Name != "Home 40" || order.PlanSnapshot.FinalPrice != 900 {
			t.Fatalf("expected frozen plan snapshot, got %+v", order.PlanSnapshot)
		}
	})

	t.Run("Given a gateway create failure When checking out Then no order row is left behind", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, true)
		f.hosted.makeErr = errMockRepo

		// When
		_, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: validDetails(), PayNow: true})

		// Then
		if err == nil {
			t.Fatal("expected error")
		}
		if len(f.orders.created) != 0 {
			t.Fatalf("expected no persisted order, got %d", len(f.orders.created))
		}
	})

	t.Run("Given pay later When checking out Then the order persists without a gateway call", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, true)

		// When
		result, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: validDetails()})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.CheckoutURL != "" {
			t.Fatal("expected no checkout URL for pay later")
		}
		if f.hosted.makeCalls != 0 {
			t.Fatalf("expected no gateway call, got %d", f.hosted.makeCalls)
		}
		if len(f.orders.created) != 1 || f.orders.created[0].GatewayInitiated {
			t.Fatalf("expected a plain pending order, got %+v", f.orders.created)
		}
	})

	t.Run("Given an in-flight order for the email When checking out Then the duplicate is rejected", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, true)
		f.orders.existsActive = true

		// When
		_, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: validDetails()})

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})

	t.Run("Given an inactive plan When checking out Then validation fails", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, false)

		// When
		_, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: validDetails()})

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("Given an unknown plan When checking out Then not found", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()

		// When
		_, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-404", Details: validDetails()})

		// Then
		assertErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("Given a missing email When checking out Then validation fails", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedPlan(f, true)
		details := validDetails()
		details.Email = "not-an-email"

		// When
		_, err := f.svc.CheckoutPlan(ctx, PlanCheckoutInput{PlanID: "plan-1", Details: details})

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})
}

func TestPayForOrder(t *testing.T) {
	ctx := context.Background()

	seedOrder := func(f *checkoutFixture, status domain.OrderStatus) *domain.Order {
		order := &domain.Order{
			ID:              "order-1",
			OrderNumber:     "ORD-AAAA111111",
			CustomerDetails: validDetails(),
			Status:          status,
			GatewayTxID:     strPtr("SP-OLD"),
			CheckoutURL:     strPtr("https://pay.example/old"),
			Amount:          900,
		}
		f.orders.orders[order.ID] = order
		return order
	}

	t.Run("Given a pending order When retrying payment Then the prior session is overwritten", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		order := seedOrder(f, domain.OrderStatusPendingPayment)

		// When
		result, err := f.svc.PayForOrder(ctx, order.OrderNumber, "RAHIM@example.com", "1.2.3.4")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.CheckoutURL == "" || result.CheckoutURL == "https://pay.example/old" {
			t.Fatalf("expected a fresh checkout URL, got %q", result.CheckoutURL)
		}
		if order.GatewayTxID == nil || *order.GatewayTxID == "SP-OLD" {
			t.Fatal("expected the gateway correlation id to be replaced")
		}
	})

	t.Run("Given the wrong email When retrying payment Then access is denied", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		order := seedOrder(f, domain.OrderStatusPendingPayment)

		// When
		_, err := f.svc.PayForOrder(ctx, order.OrderNumber, "other@example.com", "")

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given an already settled order When retrying payment Then the retry is rejected", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		order := seedOrder(f, domain.OrderStatusPendingReview)

		// When
		_, err := f.svc.PayForOrder(ctx, order.OrderNumber, order.CustomerDetails.Email, "")

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})
}

func TestReserveCartItems(t *testing.T) {
	ctx := context.Background()

	t.Run("Given enough stock When reserving Then lines and subtotal are computed", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		f.products.products["prod-1"] = &domain.Product{ID: "prod-1", Name: "Router", Price: 2000, DiscountPercent: 10, Stock: 5, IsActive: true}

		// When
		items, subtotal, err := f.svc.reserveCartItems(ctx, Cart{"prod-1": 2})

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].LineTotal != 3600 || subtotal != 3600 {
			t.Fatalf("expected one 3600 line, got %+v subtotal %.2f", items, subtotal)
		}
		if f.products.products["prod-1"].Stock != 3 {
			t.Fatalf("expected stock reserved down to 3, got %d", f.products.products["prod-1"].Stock)
		}
	})

	t.Run("Given insufficient stock When reserving Then the conflict leaves stock intact", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		f.products.products["prod-1"] = &domain.Product{ID: "prod-1", Name: "Router", Price: 2000, Stock: 3, IsActive: true}

		// When
		_, _, err := f.svc.reserveCartItems(ctx, Cart{"prod-1": 5})

		// Then
		assertErrorCode(t, err, "CONFLICT")
		if f.products.products["prod-1"].Stock != 3 {
			t.Fatalf("expected untouched stock, got %d", f.products.products["prod-1"].Stock)
		}
	})

	t.Run("Given an inactive item in the cart When reserving Then prior reservations roll back", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		f.products.products["prod-1"] = &domain.Product{ID: "prod-1", Name: "Router", Price: 2000, Stock: 5, IsActive: true}
		f.products.products["prod-2"] = &domain.Product{ID: "prod-2", Name: "Old ONU", Price: 900, Stock: 5, IsActive: false}

		// When
		_, _, err := f.svc.reserveCartItems(ctx, Cart{"prod-1": 2, "prod-2": 1})

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
		if f.products.products["prod-1"].Stock != 5 {
			t.Fatalf("expected reserved stock restored, got %d", f.products.products["prod-1"].Stock)
		}
	})
}

func TestInitiateInvoicePayment(t *testing.T) {
	ctx := context.Background()

	seed := func(f *checkoutFixture, status domain.InvoiceStatus, gatewayEnabled bool) *domain.Invoice {
		invoice := &domain.Invoice{
			ID:            "invoice-1",
			CompanyID:     "company-1",
			CustomerID:    "customer-1",
			InvoiceNumber: "INV-2026-03",
			Amount:        800,
			Status:        status,
		}
		f.invoices.invoices[invoice.ID] = invoice
		f.companies.companies["company-1"] = &domain.Company{
			ID:       "company-1",
			GatewayB: domain.GatewayBCredentials{Enabled: gatewayEnabled, Username: "demo"},
		}
		return invoice
	}

	t.Run("Given a pending invoice When initiating Then a session opens and is recorded", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		invoice := seed(f, domain.InvoiceStatusPending, true)

		// When
		url, err := f.svc.InitiateInvoicePayment(ctx, "customer-1", "invoice-1")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if url == "" {
			t.Fatal("expected a redirect URL")
		}
		if invoice.GatewayPaymentID == nil {
			t.Fatal("expected the session payment id to be recorded")
		}
		if f.tokenized.createCalls != 1 {
			t.Fatalf("expected one create call, got %d", f.tokenized.createCalls)
		}
	})

	t.Run("Given another customer's invoice When initiating Then access is denied", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seed(f, domain.InvoiceStatusPending, true)

		// When
		_, err := f.svc.InitiateInvoicePayment(ctx, "customer-2", "invoice-1")

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given a paid invoice When initiating Then the attempt is rejected", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seed(f, domain.InvoiceStatusPaid, true)

		// When
		_, err := f.svc.InitiateInvoicePayment(ctx, "customer-1", "invoice-1")

		// Then
		assertErrorCode(t, err, "CONFLICT")
	})

	t.Run("Given a company without the provider enabled When initiating Then validation fails", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seed(f, domain.InvoiceStatusPending, false)

		// When
		_, err := f.svc.InitiateInvoicePayment(ctx, "customer-1", "invoice-1")

		// Then
		assertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("Given a provider create failure When initiating Then nothing is persisted", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seed(f, domain.InvoiceStatusPending, true)
		f.tokenized.createErr = errMockRepo

		// When
		_, err := f.svc.InitiateInvoicePayment(ctx, "customer-1", "invoice-1")

		// Then
		if err == nil {
			t.Fatal("expected error")
		}
		if f.invoices.sessionCalls != 0 {
			t.Fatalf("expected no session write, got %d", f.invoices.sessionCalls)
		}
	})
}

func TestTrackShopOrder(t *testing.T) {
	ctx := context.Background()

	seedShipped := func(f *checkoutFixture) *domain.ProductOrder {
		order := &domain.ProductOrder{
			ID:              "shop-order-1",
			OrderNumber:     "SH-2026-01",
			CustomerDetails: domain.OrderCustomerDetails{Email: "rahim@example.com"},
			Status:          domain.ProductOrderStatusShipped,
			CourierName:     strPtr("Steadfast"),
			TrackingCode:    strPtr("CID-900"),
		}
		f.productOrders.orders[order.ID] = order
		return order
	}

	t.Run("Given a shipped order When tracking Then the courier's live status is attached", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedShipped(f)
		f.courier.status = "Delivered"

		// When
		status, err := f.svc.TrackShopOrder(ctx, "sh-2026-01", "RAHIM@example.com")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.LiveCourierStatus != "Delivered" {
			t.Fatalf("unexpected live status %q", status.LiveCourierStatus)
		}
		if len(f.courier.statusCalls) != 1 || f.courier.statusCalls[0] != "Steadfast:CID-900" {
			t.Fatalf("unexpected courier calls %v", f.courier.statusCalls)
		}
	})

	t.Run("Given an unreachable provider When tracking Then the stored state still renders", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedShipped(f)
		f.courier.statusErr = errMockRepo

		// When
		status, err := f.svc.TrackShopOrder(ctx, "SH-2026-01", "rahim@example.com")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.LiveCourierStatus != "" {
			t.Fatalf("expected no live status, got %q", status.LiveCourierStatus)
		}
		if status.Order.Status != domain.ProductOrderStatusShipped {
			t.Fatalf("unexpected order status %s", status.Order.Status)
		}
	})

	t.Run("Given no consignment yet When tracking Then the provider is never asked", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		order := seedShipped(f)
		order.Status = domain.ProductOrderStatusProcessingPaid
		order.CourierName = nil
		order.TrackingCode = nil

		// When
		status, err := f.svc.TrackShopOrder(ctx, "SH-2026-01", "rahim@example.com")

		// Then
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.LiveCourierStatus != "" {
			t.Fatalf("expected no live status, got %q", status.LiveCourierStatus)
		}
		if len(f.courier.statusCalls) != 0 {
			t.Fatalf("expected no courier calls, got %v", f.courier.statusCalls)
		}
	})

	t.Run("Given another shopper's email When tracking Then access is denied", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()
		seedShipped(f)

		// When
		_, err := f.svc.TrackShopOrder(ctx, "SH-2026-01", "karim@example.com")

		// Then
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("Given an unknown number When tracking Then the order is not found", func(t *testing.T) {
		// Given
		f := newCheckoutFixture()

		// When
		_, err := f.svc.TrackShopOrder(ctx, "SH-9999-99", "rahim@example.com")

		// Then
		assertErrorCode(t, err, "NOT_FOUND")
	})
}
