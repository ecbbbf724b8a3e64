package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/isp-portal/internal/domain"
)

// CompanyRepository reads ISP tenant settings.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	// GetSLAConfig returns the company's SLA override or nil when absent.
	GetSLAConfig(ctx context.Context, id string) (domain.SLATable, error)
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository instantiates repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	const query = `
        SELECT id, company_name, contact_email, sla_config, gateway_b_settings, router_settings, created_at, updated_at
        FROM isp_companies WHERE id=$1`

	var (
		company     domain.Company
		slaRaw      []byte
		gatewayBRaw []byte
		routerRaw   []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.ContactEmail,
		&slaRaw,
		&gatewayBRaw,
		&routerRaw,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(slaRaw) > 0 {
		if err := json.Unmarshal(slaRaw, &company.SLAConfig); err != nil {
			return nil, fmt.Errorf("decode sla_config: %w", err)
		}
	}
	if len(gatewayBRaw) > 0 {
		if err := json.Unmarshal(gatewayBRaw, &company.GatewayB); err != nil {
			return nil, fmt.Errorf("decode gateway_b_settings: %w", err)
		}
	}
	if len(routerRaw) > 0 {
		if err := json.Unmarshal(routerRaw, &company.Router); err != nil {
			return nil, fmt.Errorf("decode router_settings: %w", err)
		}
	}
	return &company, nil
}

func (r *companyRepository) GetSLAConfig(ctx context.Context, id string) (domain.SLATable, error) {
	const query = `SELECT sla_config FROM isp_companies WHERE id=$1`
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var table domain.SLATable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode sla_config: %w", err)
	}
	return table, nil
}
