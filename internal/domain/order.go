package domain

import (
	"fmt"
	"time"
)

// OrderStatus enumerates subscription-order lifecycle states.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "Pending Payment"
	OrderStatusPendingReview  OrderStatus = "Pending Review"
	OrderStatusApproved       OrderStatus = "Approved"
	OrderStatusRejected       OrderStatus = "Rejected"
	OrderStatusCanceled       OrderStatus = "Canceled"
)

// OrderCustomerDetails is the contact snapshot captured at checkout.
type OrderCustomerDetails struct {
	CompanyName string `json:"company_name,omitempty"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// PlanSnapshot freezes the plan terms at purchase time.
type PlanSnapshot struct {
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	DiscountPercent float64  `json:"discount_percent"`
	FinalPrice      float64  `json:"final_price"`
	Features        []string `json:"features,omitempty"`
}

// Order is a subscription purchase. At most one active gateway session exists
// per order: a new payment attempt overwrites GatewayTxID and CheckoutURL,
// silently abandoning the prior session.
type Order struct {
	ID              string
	OrderNumber     string
	PlanID          *string
	CustomerDetails OrderCustomerDetails
	PlanSnapshot    PlanSnapshot
	Status          OrderStatus
	GatewayTxID     *string
	CheckoutURL     *string
	PaymentMethod   *string
	TransactionID   *string
	Amount          float64
	// GatewayInitiated marks rows inserted mid-checkout together with a live
	// gateway session; only those are deleted when the session is abandoned.
	GatewayInitiated bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusPendingReview, OrderStatusCanceled},
	OrderStatusPendingReview:  {OrderStatusApproved, OrderStatusRejected},
	OrderStatusApproved:       {},
	OrderStatusRejected:       {},
	OrderStatusCanceled:       {},
}

// OrderStatusTerminal reports whether s admits no further transitions.
func OrderStatusTerminal(s OrderStatus) bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionOrder reports whether from -> to is a legal move.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change.
func (o *Order) Transition(to OrderStatus) error {
	if !CanTransitionOrder(o.Status, to) {
		return fmt.Errorf("illegal order transition %q -> %q", o.Status, to)
	}
	o.Status = to
	return nil
}
