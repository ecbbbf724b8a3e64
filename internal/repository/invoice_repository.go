package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// InvoiceRepository persists recurring subscription invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Invoice, error)
	// SetGatewayPaymentID records the active tokenized-checkout session.
	SetGatewayPaymentID(ctx context.Context, id, paymentID string) error
	// MarkPaid settles a pending invoice, stamping payment columns and clearing
	// the gateway correlation id. It reports false when the invoice had already
	// left the pending state.
	MarkPaid(ctx context.Context, id, paymentMethod, transactionID string, paidAt time.Time) (bool, error)
}

type invoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository instantiates repository.
func NewInvoiceRepository(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepository{pool: pool}
}

const invoiceColumns = `id, company_id, customer_id, invoice_number, amount, status, package_name,
        issue_date, paid_at, payment_method, transaction_id, gateway_payment_id, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	const query = `
        INSERT INTO subscription_invoices
            (id, company_id, customer_id, invoice_number, amount, status, package_name,
             issue_date, paid_at, payment_method, transaction_id, gateway_payment_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.pool.Exec(ctx, query,
		invoice.ID,
		invoice.CompanyID,
		invoice.CustomerID,
		invoice.InvoiceNumber,
		invoice.Amount,
		invoice.Status,
		invoice.PackageName,
		invoice.IssueDate,
		invoice.PaidAt,
		invoice.PaymentMethod,
		invoice.TransactionID,
		invoice.GatewayPaymentID,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_invoices WHERE id=$1`, invoiceColumns)
	return scanInvoice(r.pool.QueryRow(ctx, query, id))
}

func (r *invoiceRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_invoices WHERE gateway_payment_id=$1`, invoiceColumns)
	return scanInvoice(r.pool.QueryRow(ctx, query, paymentID))
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscription_invoices WHERE customer_id=$1 ORDER BY issue_date DESC`, invoiceColumns)
	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) SetGatewayPaymentID(ctx context.Context, id, paymentID string) error {
	const query = `UPDATE subscription_invoices SET gateway_payment_id=$2, updated_at=$3 WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id, paymentID, time.Now().UTC())
	return err
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id, paymentMethod, transactionID string, paidAt time.Time) (bool, error) {
	const query = `
        UPDATE subscription_invoices
        SET status=$2, payment_method=$3, transaction_id=$4, paid_at=$5,
            gateway_payment_id=NULL, updated_at=$6
        WHERE id=$1 AND status=$7`
	tag, err := r.pool.Exec(ctx, query,
		id,
		domain.InvoiceStatusPaid,
		paymentMethod,
		transactionID,
		paidAt.UTC(),
		time.Now().UTC(),
		domain.InvoiceStatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := row.Scan(
		&invoice.ID,
		&invoice.CompanyID,
		&invoice.CustomerID,
		&invoice.InvoiceNumber,
		&invoice.Amount,
		&invoice.Status,
		&invoice.PackageName,
		&invoice.IssueDate,
		&invoice.PaidAt,
		&invoice.PaymentMethod,
		&invoice.TransactionID,
		&invoice.GatewayPaymentID,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &invoice, nil
}
