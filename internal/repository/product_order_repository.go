package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// ProductOrderRepository persists shop orders.
type ProductOrderRepository interface {
	Create(ctx context.Context, order *domain.ProductOrder) error
	GetByID(ctx context.Context, id string) (*domain.ProductOrder, error)
	GetByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.ProductOrder, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.ProductOrder, error)
	// TransitionPaid moves a pending-payment shop order to processing and
	// stamps payment columns. It reports false when the order had already left
	// the pending-payment state.
	TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error)
	// DeleteByGatewayTxID removes the row left behind by an abandoned or failed
	// gateway session and returns it so reserved stock can be restored.
	DeleteByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error)
}

type productOrderRepository struct {
	pool *pgxpool.Pool
}

// NewProductOrderRepository instantiates repository.
func NewProductOrderRepository(pool *pgxpool.Pool) ProductOrderRepository {
	return &productOrderRepository{pool: pool}
}

const productOrderColumns = `id, order_number, customer_details, order_items, shipping_cost,
        discount_amount, promo_code, total_amount, status, gateway_tx_id, checkout_url,
        payment_method, transaction_id, courier_name, tracking_code, created_at, updated_at`

func (r *productOrderRepository) Create(ctx context.Context, order *domain.ProductOrder) error {
	detailsRaw, err := json.Marshal(order.CustomerDetails)
	if err != nil {
		return fmt.Errorf("encode customer details: %w", err)
	}
	itemsRaw, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	const query = `
        INSERT INTO shop_orders
            (id, order_number, customer_details, order_items, shipping_cost,
             discount_amount, promo_code, total_amount, status, gateway_tx_id, checkout_url,
             payment_method, transaction_id, courier_name, tracking_code, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err = r.pool.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		detailsRaw,
		itemsRaw,
		order.ShippingCost,
		order.DiscountAmount,
		order.PromoCode,
		order.TotalAmount,
		order.Status,
		order.GatewayTxID,
		order.CheckoutURL,
		order.PaymentMethod,
		order.TransactionID,
		order.CourierName,
		order.TrackingCode,
		order.CreatedAt,
		order.UpdatedAt,
	)
	return err
}

func (r *productOrderRepository) GetByID(ctx context.Context, id string) (*domain.ProductOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM shop_orders WHERE id=$1`, productOrderColumns)
	return scanProductOrder(r.pool.QueryRow(ctx, query, id))
}

func (r *productOrderRepository) GetByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM shop_orders WHERE gateway_tx_id=$1`, productOrderColumns)
	return scanProductOrder(r.pool.QueryRow(ctx, query, txID))
}

func (r *productOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.ProductOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM shop_orders WHERE order_number=$1`, productOrderColumns)
	return scanProductOrder(r.pool.QueryRow(ctx, query, orderNumber))
}

func (r *productOrderRepository) ListByEmail(ctx context.Context, email string) ([]*domain.ProductOrder, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM shop_orders
        WHERE customer_details->>'email' = $1
        ORDER BY created_at DESC`, productOrderColumns)
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.ProductOrder
	for rows.Next() {
		order, err := scanProductOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *productOrderRepository) TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error) {
	const query = `
        UPDATE shop_orders
        SET status=$2, payment_method=$3, transaction_id=$4, updated_at=$5
        WHERE id=$1 AND status=$6`
	tag, err := r.pool.Exec(ctx, query,
		id,
		domain.ProductOrderStatusProcessingPaid,
		paymentMethod,
		transactionID,
		time.Now().UTC(),
		domain.ProductOrderStatusPendingPayment,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productOrderRepository) DeleteByGatewayTxID(ctx context.Context, txID string) (*domain.ProductOrder, error) {
	query := fmt.Sprintf(`
        DELETE FROM shop_orders
        WHERE gateway_tx_id=$1 AND status=$2
        RETURNING %s`, productOrderColumns)
	return scanProductOrder(r.pool.QueryRow(ctx, query, txID, domain.ProductOrderStatusPendingPayment))
}

func scanProductOrder(row pgx.Row) (*domain.ProductOrder, error) {
	var (
		order      domain.ProductOrder
		detailsRaw []byte
		itemsRaw   []byte
	)
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&detailsRaw,
		&itemsRaw,
		&order.ShippingCost,
		&order.DiscountAmount,
		&order.PromoCode,
		&order.TotalAmount,
		&order.Status,
		&order.GatewayTxID,
		&order.CheckoutURL,
		&order.PaymentMethod,
		&order.TransactionID,
		&order.CourierName,
		&order.TrackingCode,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &order.CustomerDetails); err != nil {
			return nil, fmt.Errorf("decode customer details: %w", err)
		}
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &order.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return &order, nil
}
