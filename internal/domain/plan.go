package domain

import (
	"math"
	"time"
)

// Plan is a purchasable subscription package.
type Plan struct {
	ID              string
	Name            string
	Price           float64
	DiscountPercent float64
	Features        []string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FinalPrice applies the discount percent with a floor of 1.00, which some
// gateways require as a minimum chargeable amount.
func (p Plan) FinalPrice() float64 {
	price := p.Price
	if p.DiscountPercent > 0 {
		price = p.Price * (1 - p.DiscountPercent/100)
	}
	price = math.Round(price*100) / 100
	if price < 1.0 {
		price = 1.0
	}
	return price
}
