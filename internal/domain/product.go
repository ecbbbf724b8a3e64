package domain

import (
	"fmt"
	"math"
	"time"
)

// Product is a shop item (routers, ONUs, accessories).
type Product struct {
	ID              string
	Name            string
	Description     string
	Price           float64
	DiscountPercent float64
	Stock           int
	ImageURL        string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FinalPrice applies the discount percent, rounded to 2 decimals.
func (p Product) FinalPrice() float64 {
	price := p.Price
	if p.DiscountPercent > 0 {
		price = p.Price * (1 - p.DiscountPercent/100)
	}
	return math.Round(price*100) / 100
}

// PromoType selects how a promo code discounts the cart subtotal.
type PromoType string

const (
	PromoTypePercent PromoType = "percent"
	PromoTypeFixed   PromoType = "fixed"
)

// PromoCode is a shop-wide discount voucher.
type PromoCode struct {
	ID             string
	Code           string
	Type           PromoType
	Value          float64
	MinOrderAmount float64
	ExpiresAt      *time.Time
	IsActive       bool
	CreatedAt      time.Time
}

// Validate reports why a promo cannot be applied, or nil.
func (p PromoCode) Validate(now time.Time, subtotal float64) error {
	if !p.IsActive {
		return fmt.Errorf("promo code %s is no longer active", p.Code)
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return fmt.Errorf("promo code %s has expired", p.Code)
	}
	if subtotal < p.MinOrderAmount {
		return fmt.Errorf("promo code %s requires a minimum order of %.2f", p.Code, p.MinOrderAmount)
	}
	return nil
}

// Discount computes the discount amount for a subtotal, capped at subtotal.
func (p PromoCode) Discount(subtotal float64) float64 {
	var d float64
	switch p.Type {
	case PromoTypePercent:
		d = subtotal * p.Value / 100
	case PromoTypeFixed:
		d = p.Value
	}
	if d > subtotal {
		d = subtotal
	}
	return math.Round(d*100) / 100
}

// ProductReview is customer feedback on a shop item.
type ProductReview struct {
	ID         string
	ProductID  string
	CustomerID string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}
