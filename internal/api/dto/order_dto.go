package dto

import (
	"time"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// CustomerDetailsPayload is the contact block shared by checkout requests.
type CustomerDetailsPayload struct {
	CompanyName string `json:"company_name"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// Domain converts the payload into the persisted snapshot form.
func (p CustomerDetailsPayload) Domain() domain.OrderCustomerDetails {
	return domain.OrderCustomerDetails{
		CompanyName: p.CompanyName,
		FullName:    p.FullName,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

// PlanCheckoutRequest payload.
type PlanCheckoutRequest struct {
	PlanID  string                 `json:"plan_id"`
	Details CustomerDetailsPayload `json:"details"`
	PayNow  bool                   `json:"pay_now"`
}

// PayOrderRequest payload for settling a pay-later order.
type PayOrderRequest struct {
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
}

// CheckoutResponse is returned by every checkout entry point.
type CheckoutResponse struct {
	OrderNumber string  `json:"order_number"`
	Amount      float64 `json:"amount"`
	CheckoutURL string  `json:"checkout_url,omitempty"`
}

// PlanResponse is the public view of a subscription package.
type PlanResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	DiscountPercent float64  `json:"discount_percent"`
	FinalPrice      float64  `json:"final_price"`
	Features        []string `json:"features"`
}

// OrderResponse is the public view of a subscription order.
type OrderResponse struct {
	OrderNumber   string             `json:"order_number"`
	PlanName      string             `json:"plan_name"`
	Amount        float64            `json:"amount"`
	Status        domain.OrderStatus `json:"status"`
	PaymentMethod *string            `json:"payment_method"`
	TransactionID *string            `json:"transaction_id"`
	CheckoutURL   *string            `json:"checkout_url,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// InvoiceResponse is the customer's view of a monthly bill.
type InvoiceResponse struct {
	ID            string               `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	Amount        float64              `json:"amount"`
	Status        domain.InvoiceStatus `json:"status"`
	PackageName   string               `json:"package_name"`
	IssueDate     time.Time            `json:"issue_date"`
	PaidAt        *time.Time           `json:"paid_at"`
	PaymentMethod *string              `json:"payment_method"`
}

// PaymentOutcomeResponse reports what the reconciler decided for a callback.
type PaymentOutcomeResponse struct {
	Settled   bool   `json:"settled"`
	Duplicate bool   `json:"duplicate"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message"`
}

// NotificationResponse is a persisted admin alert.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID *string   `json:"related_id"`
	CreatedAt time.Time `json:"created_at"`
}
