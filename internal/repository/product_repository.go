package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// ProductRepository persists shop items, promo codes and reviews.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListActive(ctx context.Context) ([]*domain.Product, error)
	// DecrementStock atomically reserves quantity, failing when stock is short.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
	RestoreStock(ctx context.Context, id string, quantity int) error

	GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error)

	CreateReview(ctx context.Context, review *domain.ProductReview) error
	ListReviewsByProduct(ctx context.Context, productID string) ([]*domain.ProductReview, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, product_name, description, price, discount_percent, stock, image_url,
        is_active, created_at, updated_at`

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM shop_products WHERE id=$1`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

func (r *productRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM shop_products WHERE is_active=true ORDER BY created_at DESC`, productColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	const query = `
        UPDATE shop_products
        SET stock = stock - $2, updated_at=$3
        WHERE id=$1 AND stock >= $2`
	tag, err := r.pool.Exec(ctx, query, id, quantity, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	const query = `UPDATE shop_products SET stock = stock + $2, updated_at=$3 WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id, quantity, time.Now().UTC())
	return err
}

func (r *productRepository) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	const query = `
        SELECT id, code, promo_type, value, min_order_amount, expires_at, is_active, created_at
        FROM shop_promo_codes WHERE UPPER(code)=UPPER($1)`
	var promo domain.PromoCode
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&promo.ID,
		&promo.Code,
		&promo.Type,
		&promo.Value,
		&promo.MinOrderAmount,
		&promo.ExpiresAt,
		&promo.IsActive,
		&promo.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *productRepository) CreateReview(ctx context.Context, review *domain.ProductReview) error {
	const query = `
        INSERT INTO shop_product_reviews (product_id, customer_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		review.ProductID,
		review.CustomerID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
}

func (r *productRepository) ListReviewsByProduct(ctx context.Context, productID string) ([]*domain.ProductReview, error) {
	const query = `
        SELECT id, product_id, customer_id, rating, comment, created_at
        FROM shop_product_reviews WHERE product_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.ProductReview
	for rows.Next() {
		var review domain.ProductReview
		if err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.CustomerID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.DiscountPercent,
		&product.Stock,
		&product.ImageURL,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &product, nil
}
