package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/isp-portal/internal/config"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// Cart maps product id to quantity.
type Cart map[string]int

// CartService keeps shopping carts in Redis, keyed per customer, with a TTL
// so abandoned carts expire on their own.
type CartService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartService creates the service.
func NewCartService(client *redis.Client, cfg config.ShopConfig) *CartService {
	ttl := time.Duration(cfg.CartTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CartService{client: client, ttl: ttl}
}

func cartKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}

// Get loads a customer's cart, returning an empty cart when none exists.
func (s *CartService) Get(ctx context.Context, customerID string) (Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, nil
		}
		return nil, apperrors.MapError(err)
	}
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decode cart: %w", err))
	}
	return cart, nil
}

// AddItem increments a product's quantity in the cart.
func (s *CartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (Cart, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", nil)
	}
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	cart[productID] += quantity
	if err := s.save(ctx, customerID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetItem pins a product's quantity; zero removes the line.
func (s *CartService) SetItem(ctx context.Context, customerID, productID string, quantity int) (Cart, error) {
	if quantity < 0 {
		return nil, apperrors.NewValidationError("quantity cannot be negative", nil)
	}
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		delete(cart, productID)
	} else {
		cart[productID] = quantity
	}
	if err := s.save(ctx, customerID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear drops the whole cart, called after a successful checkout.
func (s *CartService) Clear(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *CartService) save(ctx context.Context, customerID string, cart Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("encode cart: %w", err))
	}
	if err := s.client.Set(ctx, cartKey(customerID), raw, s.ttl).Err(); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
