package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// EmployeeRepository encapsulates employee persistence.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	// ListActiveByZone returns assignment candidates ordered by id, so the
	// balancer's tie-break (first found wins) is deterministic.
	ListActiveByZone(ctx context.Context, companyID, zoneID string) ([]domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, company_id, zone_id, full_name, email, password_hash, role, status, created_at, updated_at`

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *employeeRepository) ListActiveByZone(ctx context.Context, companyID, zoneID string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + `
        FROM employees WHERE company_id=$1 AND zone_id=$2 AND status='Active'
        ORDER BY id`
	rows, err := r.pool.Query(ctx, query, companyID, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		var emp domain.Employee
		if err := scanEmployee(rows, &emp); err != nil {
			return nil, err
		}
		result = append(result, emp)
	}
	return result, rows.Err()
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var emp domain.Employee
	if err := scanEmployee(r.pool.QueryRow(ctx, query, arg), &emp); err != nil {
		return nil, err
	}
	return &emp, nil
}

type employeeRow interface {
	Scan(dest ...any) error
}

func scanEmployee(row employeeRow, emp *domain.Employee) error {
	return row.Scan(
		&emp.ID,
		&emp.CompanyID,
		&emp.ZoneID,
		&emp.FullName,
		&emp.Email,
		&emp.PasswordHash,
		&emp.Role,
		&emp.Status,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
}
