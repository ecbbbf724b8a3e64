package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// PlanRepository reads subscription packages.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]*domain.Plan, error)
}

type planRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository instantiates repository.
func NewPlanRepository(pool *pgxpool.Pool) PlanRepository {
	return &planRepository{pool: pool}
}

const planColumns = `id, plan_name, price, discount_percent, features, is_active, created_at, updated_at`

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_plans WHERE id=$1`, planColumns)
	return scanPlan(r.pool.QueryRow(ctx, query, id))
}

func (r *planRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_plans WHERE is_active=true ORDER BY price`, planColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var (
		plan        domain.Plan
		featuresRaw []byte
	)
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Price,
		&plan.DiscountPercent,
		&featuresRaw,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(featuresRaw) > 0 {
		if err := json.Unmarshal(featuresRaw, &plan.Features); err != nil {
			return nil, fmt.Errorf("decode plan features: %w", err)
		}
	}
	return &plan, nil
}
