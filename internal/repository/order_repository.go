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

// OrderRepository persists subscription orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetByGatewayTxID(ctx context.Context, txID string) (*domain.Order, error)
	// UpdateGatewaySession overwrites the active gateway session columns,
	// abandoning any prior session on the same order.
	UpdateGatewaySession(ctx context.Context, id string, gatewayTxID, checkoutURL string) error
	// TransitionPaid moves a pending-payment order to pending review and stamps
	// the payment columns. It reports false when the order had already left the
	// pending-payment state, which makes duplicate gateway callbacks harmless.
	TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteByGatewayTxID(ctx context.Context, txID string) error
	// ExistsActiveByEmail guards checkout against duplicate in-flight orders
	// for the same applicant.
	ExistsActiveByEmail(ctx context.Context, email string) (bool, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, order_number, plan_id, customer_details, plan_snapshot, status,
        gateway_tx_id, checkout_url, payment_method, transaction_id, amount, gateway_initiated,
        created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	detailsRaw, err := json.Marshal(order.CustomerDetails)
	if err != nil {
		return fmt.Errorf("encode customer details: %w", err)
	}
	snapshotRaw, err := json.Marshal(order.PlanSnapshot)
	if err != nil {
		return fmt.Errorf("encode plan snapshot: %w", err)
	}

	const query = `
        INSERT INTO subscription_orders
            (id, order_number, plan_id, customer_details, plan_snapshot, status,
             gateway_tx_id, checkout_url, payment_method, transaction_id, amount, gateway_initiated,
             created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err = r.pool.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.PlanID,
		detailsRaw,
		snapshotRaw,
		order.Status,
		order.GatewayTxID,
		order.CheckoutURL,
		order.PaymentMethod,
		order.TransactionID,
		order.Amount,
		order.GatewayInitiated,
		order.CreatedAt,
		order.UpdatedAt,
	)
	return err
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_orders WHERE id=$1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_orders WHERE order_number=$1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
}

func (r *orderRepository) GetByGatewayTxID(ctx context.Context, txID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_orders WHERE gateway_tx_id=$1`, orderColumns)
	return scanOrder(r.pool.QueryRow(ctx, query, txID))
}

func (r *orderRepository) UpdateGatewaySession(ctx context.Context, id string, gatewayTxID, checkoutURL string) error {
	const query = `
        UPDATE subscription_orders
        SET gateway_tx_id=$2, checkout_url=$3, updated_at=$4
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id, gatewayTxID, checkoutURL, time.Now().UTC())
	return err
}

func (r *orderRepository) TransitionPaid(ctx context.Context, id, paymentMethod, transactionID string) (bool, error) {
	const query = `
        UPDATE subscription_orders
        SET status=$2, payment_method=$3, transaction_id=$4, updated_at=$5
        WHERE id=$1 AND status=$6`
	tag, err := r.pool.Exec(ctx, query,
		id,
		domain.OrderStatusPendingReview,
		paymentMethod,
		transactionID,
		time.Now().UTC(),
		domain.OrderStatusPendingPayment,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscription_orders WHERE id=$1`, id)
	return err
}

func (r *orderRepository) DeleteByGatewayTxID(ctx context.Context, txID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscription_orders WHERE gateway_tx_id=$1 AND gateway_initiated=true`, txID)
	return err
}

func (r *orderRepository) ExistsActiveByEmail(ctx context.Context, email string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM subscription_orders
            WHERE customer_details->>'email' = $1
              AND status IN ($2, $3)
        )`
	var exists bool
	err := r.pool.QueryRow(ctx, query, email,
		domain.OrderStatusPendingPayment, domain.OrderStatusPendingReview).Scan(&exists)
	return exists, err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order       domain.Order
		detailsRaw  []byte
		snapshotRaw []byte
	)
	if err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.PlanID,
		&detailsRaw,
		&snapshotRaw,
		&order.Status,
		&order.GatewayTxID,
		&order.CheckoutURL,
		&order.PaymentMethod,
		&order.TransactionID,
		&order.Amount,
		&order.GatewayInitiated,
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
	if len(snapshotRaw) > 0 {
		if err := json.Unmarshal(snapshotRaw, &order.PlanSnapshot); err != nil {
			return nil, fmt.Errorf("decode plan snapshot: %w", err)
		}
	}
	return &order, nil
}
