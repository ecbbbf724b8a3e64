package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// CustomerRepository encapsulates subscriber persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// MarkActive sets the customer Active with a new next payment date,
	// returning the status the row held before the update.
	MarkActive(ctx context.Context, id string, nextPaymentDate time.Time) (domain.CustomerStatus, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, company_id, zone_id, full_name, email, phone_number, address,
               pppoe_username, status, next_payment_date, password_hash, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (company_id, zone_id, full_name, email, phone_number, address, pppoe_username, status, next_payment_date, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		customer.CompanyID,
		customer.ZoneID,
		customer.FullName,
		customer.Email,
		customer.PhoneNumber,
		customer.Address,
		customer.PPPoEUsername,
		customer.Status,
		customer.NextPaymentDate,
		customer.PasswordHash,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *customerRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE customers SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) MarkActive(ctx context.Context, id string, nextPaymentDate time.Time) (domain.CustomerStatus, error) {
	const query = `
        UPDATE customers c SET status='Active', next_payment_date=$1, updated_at=NOW()
        FROM (SELECT id, status FROM customers WHERE id=$2 FOR UPDATE) prev
        WHERE c.id=prev.id
        RETURNING prev.status`
	var previous domain.CustomerStatus
	if err := r.pool.QueryRow(ctx, query, nextPaymentDate, id).Scan(&previous); err != nil {
		return "", err
	}
	return previous, nil
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&customer.ID,
		&customer.CompanyID,
		&customer.ZoneID,
		&customer.FullName,
		&customer.Email,
		&customer.PhoneNumber,
		&customer.Address,
		&customer.PPPoEUsername,
		&customer.Status,
		&customer.NextPaymentDate,
		&customer.PasswordHash,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
