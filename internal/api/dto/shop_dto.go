package dto

import (
	"time"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// ProductResponse is the public view of a shop item.
type ProductResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discount_percent"`
	FinalPrice      float64 `json:"final_price"`
	Stock           int     `json:"stock"`
	ImageURL        string  `json:"image_url"`
}

// CartItemRequest payload for add/set cart operations.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartResponse maps product id to quantity.
type CartResponse struct {
	Items map[string]int `json:"items"`
}

// ProductCheckoutRequest payload.
type ProductCheckoutRequest struct {
	Details        CustomerDetailsPayload `json:"details"`
	InsideDhaka    bool                   `json:"inside_dhaka"`
	PromoCode      string                 `json:"promo_code"`
	CashOnDelivery bool                   `json:"cash_on_delivery"`
}

// ProductOrderResponse is the public view of a shop order.
type ProductOrderResponse struct {
	OrderNumber    string                    `json:"order_number"`
	Items          []ProductOrderItemPayload `json:"items"`
	ShippingCost   float64                   `json:"shipping_cost"`
	DiscountAmount float64                   `json:"discount_amount"`
	PromoCode      *string                   `json:"promo_code"`
	TotalAmount    float64                   `json:"total_amount"`
	Status         domain.ProductOrderStatus `json:"status"`
	CourierName    *string                   `json:"courier_name"`
	TrackingCode   *string                   `json:"tracking_code"`
	// LiveCourierStatus is only populated on the tracking endpoint, and only
	// when the delivery provider answered.
	LiveCourierStatus string    `json:"live_courier_status,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProductOrderItemPayload is one snapshotted cart line.
type ProductOrderItemPayload struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// CreateReviewRequest payload.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewResponse is customer feedback on a product.
type ReviewResponse struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
