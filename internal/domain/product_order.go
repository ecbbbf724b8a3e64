package domain

import (
	"fmt"
	"time"
)

// ProductOrderStatus enumerates shop-order lifecycle states.
type ProductOrderStatus string

const (
	ProductOrderStatusPendingPayment ProductOrderStatus = "Pending Payment"
	ProductOrderStatusProcessingCOD  ProductOrderStatus = "Processing (COD)"
	ProductOrderStatusProcessingPaid ProductOrderStatus = "Processing (Paid)"
	ProductOrderStatusShipped        ProductOrderStatus = "Shipped"
	ProductOrderStatusDelivered      ProductOrderStatus = "Delivered"
	ProductOrderStatusCanceled       ProductOrderStatus = "Canceled"
)

// ProductOrderItem snapshots one cart line at checkout.
type ProductOrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// ProductOrder is a shop purchase. Rows inserted with a live gateway session
// are deleted outright when the checkout is abandoned or fails, so order
// history never accumulates artifacts of dead sessions.
type ProductOrder struct {
	ID              string
	OrderNumber     string
	CustomerDetails OrderCustomerDetails
	Items           []ProductOrderItem
	ShippingCost    float64
	DiscountAmount  float64
	PromoCode       *string
	TotalAmount     float64
	Status          ProductOrderStatus
	GatewayTxID     *string
	CheckoutURL     *string
	PaymentMethod   *string
	TransactionID   *string
	CourierName     *string
	TrackingCode    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var productOrderTransitions = map[ProductOrderStatus][]ProductOrderStatus{
	ProductOrderStatusPendingPayment: {ProductOrderStatusProcessingPaid, ProductOrderStatusCanceled},
	ProductOrderStatusProcessingCOD:  {ProductOrderStatusShipped, ProductOrderStatusCanceled},
	ProductOrderStatusProcessingPaid: {ProductOrderStatusShipped, ProductOrderStatusCanceled},
	ProductOrderStatusShipped:        {ProductOrderStatusDelivered},
	ProductOrderStatusDelivered:      {},
	ProductOrderStatusCanceled:       {},
}

// CanTransitionProductOrder reports whether from -> to is a legal move.
func CanTransitionProductOrder(from, to ProductOrderStatus) bool {
	for _, next := range productOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change.
func (o *ProductOrder) Transition(to ProductOrderStatus) error {
	if !CanTransitionProductOrder(o.Status, to) {
		return fmt.Errorf("illegal product order transition %q -> %q", o.Status, to)
	}
	o.Status = to
	return nil
}
