package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/events"
	"github.com/spec-kit/isp-portal/internal/gateway"
	"github.com/spec-kit/isp-portal/internal/repository"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

var errMockRepo = errors.New("mock repository error")

func strPtr(s string) *string { return &s }

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, domainErr.Code, domainErr.Message)
	}
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// mockTicketRepo implements repository.TicketRepository in memory.
type mockTicketRepo struct {
	mu               sync.Mutex
	tickets          map[string]*domain.Ticket
	created          []*domain.Ticket
	createErr        error
	breached         []domain.Ticket
	markOverdueCalls []string
	overdueDenied    map[string]bool
	openCounts       map[string]int
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		tickets:       make(map[string]*domain.Ticket),
		overdueDenied: make(map[string]bool),
		openCounts:    make(map[string]int),
	}
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if ticket.ID == "" {
		ticket.ID = "ticket-" + ticket.TicketNumber
	}
	ticket.UpdatedAt = ticket.CreatedAt
	m.tickets[ticket.ID] = ticket
	m.created = append(m.created, ticket)
	return nil
}

func (m *mockTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (m *mockTicketRepo) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ticket := range m.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range m.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.CompanyID != nil && ticket.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (m *mockTicketRepo) CountOpenByEmployee(ctx context.Context, employeeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCounts[employeeID], nil
}

func (m *mockTicketRepo) ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.breached, nil
}

func (m *mockTicketRepo) MarkOverdue(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markOverdueCalls = append(m.markOverdueCalls, id)
	if m.overdueDenied[id] {
		return false, nil
	}
	if ticket, ok := m.tickets[id]; ok {
		ticket.Status = domain.TicketStatusOverdue
	}
	return true, nil
}

// mockReplyRepo implements repository.TicketReplyRepository.
type mockReplyRepo struct {
	replies []domain.TicketReply
	ratings map[string]*domain.TicketRating
}

func newMockReplyRepo() *mockReplyRepo {
	return &mockReplyRepo{ratings: make(map[string]*domain.TicketRating)}
}

func (m *mockReplyRepo) CreateReply(ctx context.Context, reply *domain.TicketReply) error {
	reply.ID = "reply-1"
	reply.CreatedAt = time.Now().UTC()
	m.replies = append(m.replies, *reply)
	return nil
}

func (m *mockReplyRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketReply, error) {
	var out []domain.TicketReply
	for _, reply := range m.replies {
		if reply.TicketID == ticketID {
			out = append(out, reply)
		}
	}
	return out, nil
}

func (m *mockReplyRepo) CreateRating(ctx context.Context, rating *domain.TicketRating) error {
	rating.ID = "rating-1"
	rating.CreatedAt = time.Now().UTC()
	m.ratings[rating.TicketID] = rating
	return nil
}

func (m *mockReplyRepo) GetRatingByTicket(ctx context.Context, ticketID string) (*domain.TicketRating, error) {
	rating, ok := m.ratings[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return rating, nil
}

func (m *mockReplyRepo) ListRatingsByEmployee(ctx context.Context, employeeID string) ([]domain.TicketRating, error) {
	return nil, nil
}

// mockEmployeeRepo implements repository.EmployeeRepository.
type mockEmployeeRepo struct {
	employees map[string]*domain.Employee
	byZone    []domain.Employee
	zoneErr   error
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*domain.Employee)}
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	employee, ok := m.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return employee, nil
}

func (m *mockEmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	for _, employee := range m.employees {
		if employee.Email == email {
			return employee, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockEmployeeRepo) ListActiveByZone(ctx context.Context, companyID, zoneID string) ([]domain.Employee, error) {
	if m.zoneErr != nil {
		return nil, m.zoneErr
	}
	return m.byZone, nil
}

// mockCustomerRepo implements repository.CustomerRepository.
type mockCustomerRepo struct {
	customers       map[string]*domain.Customer
	markActivePrev  domain.CustomerStatus
	markActiveErr   error
	markActiveCalls int
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = "customer-" + customer.Email
	}
	m.customers[customer.ID] = customer
	return nil
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer, ok := m.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return customer, nil
}

func (m *mockCustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	for _, customer := range m.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockCustomerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	customer, ok := m.customers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	customer.PasswordHash = passwordHash
	return nil
}

func (m *mockCustomerRepo) MarkActive(ctx context.Context, id string, nextPaymentDate time.Time) (domain.CustomerStatus, error) {
	m.markActiveCalls++
	if m.markActiveErr != nil {
		return "", m.markActiveErr
	}
	customer, ok := m.customers[id]
	if !ok {
		return "", pgx.ErrNoRows
	}
	prev := m.markActivePrev
	if prev == "" {
		prev = customer.Status
	}
	customer.Status = domain.CustomerStatusActive
	customer.NextPaymentDate = &nextPaymentDate
	return prev, nil
}

// mockCompanyRepo implements repository.CompanyRepository.
type mockCompanyRepo struct {
	companies map[string]*domain.Company
	sla       domain.SLATable
	slaErr    error
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[string]*domain.Company)}
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	company, ok := m.companies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return company, nil
}

func (m *mockCompanyRepo) GetSLAConfig(ctx context.Context, id string) (domain.SLATable, error) {
	if m.slaErr != nil {
		return nil, m.slaErr
	}
	return m.sla, nil
}

// mockOrderRepo implements repository.OrderRepository.
type mockOrderRepo struct {
	mu              sync.Mutex
	orders          map[string]*domain.Order
	created         []*domain.Order
	createErr       error
	existsActive    bool
	deletedTxIDs    []string
	transitionCalls int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	m.created = append(m.created, order)
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return order, nil
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockOrderRepo) GetByGatewayTxID(ctx context.Context, txID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.GatewayTxID != nil && *order.GatewayTxID == txID {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockOrderRepo) UpdateGatewaySession(ctx context.Context, id string, gatewayTxID, checkoutURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	order.GatewayTxID = &gatewayTxID
	order.CheckoutURL = &checkoutURL
	return nil
}

func (m *mockOrderRepo) TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCalls++
	order, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return false, nil
	}
	order.Status = domain.OrderStatusPendingReview
	order.PaymentMethod = &paymentMethod
	order.TransactionID = &transactionID
	return true, nil
}

func (m *mockOrderRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) DeleteByGatewayTxID(ctx context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedTxIDs = append(m.deletedTxIDs, txID)
	for id, order := range m.orders {
		if order.GatewayTxID != nil && *order.GatewayTxID == txID &&
			order.GatewayInitiated && order.Status == domain.OrderStatusPendingPayment {
			delete(m.orders, id)
		}
	}
	return nil
}

func (m *mockOrderRepo) ExistsActiveByEmail(ctx context.Context, email string) (bool, error) {
	return m.existsActive, nil
}

// mockProductOrderRepo implements repository.ProductOrderRepository.
type mockProductOrderRepo struct {
	mu              sync.Mutex
	orders          map[string]*domain.ProductOrder
	created         []*domain.ProductOrder
	createErr       error
	transitionCalls int
}

func newMockProductOrderRepo() *mockProductOrderRepo {
	return &mockProductOrderRepo{orders: make(map[string]*domain.ProductOrder)}
}

func (m *mockProductOrderRepo) Create(ctx context.Context, order *domain.ProductOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	m.created = append(m.created, order)
	return nil
}

func (m *mockProductOrderRepo) GetByID(ctx context.Context, id string) (*domain.ProductOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return order, nil
}

func (m *mockProductOrderRepo) GetByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.GatewayTxID != nil && *order.GatewayTxID == txID {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockProductOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.ProductOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockProductOrderRepo) ListByEmail(ctx context.Context, email string) ([]*domain.ProductOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ProductOrder
	for _, order := range m.orders {
		if order.CustomerDetails.Email == email {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockProductOrderRepo) TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCalls++
	order, ok := m.orders[id]
	if !ok || order.Status != domain.ProductOrderStatusPendingPayment {
		return false, nil
	}
	order.Status = domain.ProductOrderStatusProcessingPaid
	order.PaymentMethod = &paymentMethod
	order.TransactionID = &transactionID
	return true, nil
}

func (m *mockProductOrderRepo) DeleteByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, order := range m.orders {
		if order.GatewayTxID != nil && *order.GatewayTxID == txID &&
			order.Status == domain.ProductOrderStatusPendingPayment {
			delete(m.orders, id)
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// mockInvoiceRepo implements repository.InvoiceRepository.
type mockInvoiceRepo struct {
	mu           sync.Mutex
	invoices     map[string]*domain.Invoice
	markCalls    int
	sessionCalls int
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[string]*domain.Invoice)}
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice, ok := m.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return invoice, nil
}

func (m *mockInvoiceRepo) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invoice := range m.invoices {
		if invoice.GatewayPaymentID != nil && *invoice.GatewayPaymentID == paymentID {
			return invoice, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockInvoiceRepo) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Invoice
	for _, invoice := range m.invoices {
		if invoice.CustomerID == customerID {
			out = append(out, invoice)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) SetGatewayPaymentID(ctx context.Context, id, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionCalls++
	invoice, ok := m.invoices[id]
	if !ok {
		return pgx.ErrNoRows
	}
	invoice.GatewayPaymentID = &paymentID
	return nil
}

func (m *mockInvoiceRepo) MarkPaid(ctx context.Context, id, paymentMethod, transactionID string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	invoice, ok := m.invoices[id]
	if !ok || invoice.Status != domain.InvoiceStatusPending {
		return false, nil
	}
	invoice.Status = domain.InvoiceStatusPaid
	invoice.PaymentMethod = &paymentMethod
	invoice.TransactionID = &transactionID
	invoice.PaidAt = &paidAt
	invoice.GatewayPaymentID = nil
	return true, nil
}

// mockProductRepo implements repository.ProductRepository.
type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	promos   map[string]*domain.PromoCode
	reviews  []*domain.ProductReview
	restored map[string]int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products: make(map[string]*domain.Product),
		promos:   make(map[string]*domain.PromoCode),
		restored: make(map[string]int),
	}
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return product, nil
}

func (m *mockProductRepo) ListActive(ctx context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, product := range m.products {
		if product.IsActive {
			out = append(out, product)
		}
	}
	return out, nil
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok || product.Stock < quantity {
		return false, nil
	}
	product.Stock -= quantity
	return true, nil
}

func (m *mockProductRepo) RestoreStock(ctx context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored[id] += quantity
	if product, ok := m.products[id]; ok {
		product.Stock += quantity
	}
	return nil
}

func (m *mockProductRepo) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	promo, ok := m.promos[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return promo, nil
}

func (m *mockProductRepo) CreateReview(ctx context.Context, review *domain.ProductReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review.ID = "review-1"
	review.CreatedAt = time.Now().UTC()
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockProductRepo) ListReviewsByProduct(ctx context.Context, productID string) ([]*domain.ProductReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ProductReview
	for _, review := range m.reviews {
		if review.ProductID == productID {
			out = append(out, review)
		}
	}
	return out, nil
}

// mockNotificationRepo implements repository.NotificationRepository.
type mockNotificationRepo struct {
	mu      sync.Mutex
	records []*domain.AdminNotification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.AdminNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = "notif-1"
	n.CreatedAt = time.Now().UTC()
	m.records = append(m.records, n)
	return nil
}

func (m *mockNotificationRepo) ListUnreadByCompany(ctx context.Context, companyID string) ([]*domain.AdminNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AdminNotification
	for _, record := range m.records {
		if record.CompanyID == companyID && !record.IsRead {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ID == id {
			record.IsRead = true
		}
	}
	return nil
}

// mockPlanRepo implements repository.PlanRepository.
type mockPlanRepo struct {
	plans map[string]*domain.Plan
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*domain.Plan)}
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return plan, nil
}

func (m *mockPlanRepo) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for _, plan := range m.plans {
		if plan.IsActive {
			out = append(out, plan)
		}
	}
	return out, nil
}

// mockHostedGateway implements HostedCheckout and PaymentVerifier.
type mockHostedGateway struct {
	mu          sync.Mutex
	makeCalls   int
	makeErr     error
	session     *gateway.Session
	verifyCalls int
	verifyErr   error
	result      *gateway.Result
}

func (m *mockHostedGateway) MakePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.makeCalls++
	if m.makeErr != nil {
		return nil, m.makeErr
	}
	if m.session != nil {
		return m.session, nil
	}
	return &gateway.Session{CorrelationID: "ISP" + req.OrderID, CheckoutURL: "https://pay.example/" + req.OrderID}, nil
}

func (m *mockHostedGateway) VerifyPayment(ctx context.Context, correlationID string) (*gateway.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &gateway.Result{
		Status:        gateway.StatusCompleted,
		CorrelationID: correlationID,
		Method:        "Test Card",
		TransactionID: "TX-1",
	}, nil
}

// mockTokenizedClient implements TokenizedCheckout.
type mockTokenizedClient struct {
	mu           sync.Mutex
	tokenErr     error
	createCalls  int
	createErr    error
	createResp   *gateway.CreatePaymentResponse
	executeCalls int
	executeErr   error
	executeResp  *gateway.ExecutePaymentResponse
}

func (m *mockTokenizedClient) GetToken(ctx context.Context) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return "token-1", nil
}

func (m *mockTokenizedClient) CreatePayment(ctx context.Context, token string, amount float64, invoiceNumber, callbackURL string) (*gateway.CreatePaymentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createResp != nil {
		return m.createResp, nil
	}
	return &gateway.CreatePaymentResponse{
		StatusCode: "0000",
		PaymentID:  "PAY-" + invoiceNumber,
		BkashURL:   "https://tokenized.example/" + invoiceNumber,
	}, nil
}

func (m *mockTokenizedClient) ExecutePayment(ctx context.Context, token, paymentID string) (*gateway.ExecutePaymentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeCalls++
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	if m.executeResp != nil {
		return m.executeResp, nil
	}
	return &gateway.ExecutePaymentResponse{
		StatusCode: "0000",
		PaymentID:  paymentID,
		TrxID:      "TRX-" + paymentID,
	}, nil
}

// mockCourier implements CourierStatus.
type mockCourier struct {
	statusCalls []string
	status      string
	statusErr   error
}

func (m *mockCourier) Status(ctx context.Context, courier, consignmentID string) (string, error) {
	m.statusCalls = append(m.statusCalls, courier+":"+consignmentID)
	if m.statusErr != nil {
		return "", m.statusErr
	}
	return m.status, nil
}

// mockRouterClient implements routerapi.Client.
type mockRouterClient struct {
	mu           sync.Mutex
	enableCalls  []string
	disableCalls []string
	enableErr    error
}

func (m *mockRouterClient) EnablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enableCalls = append(m.enableCalls, username)
	return m.enableErr
}

func (m *mockRouterClient) DisablePPPoE(ctx context.Context, settings domain.RouterSettings, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disableCalls = append(m.disableCalls, username)
	return nil
}

// mockMailer implements Mailer and records sent mail.
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}
