package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/repository"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// AuthService coordinates portal login for customers and employees.
type AuthService struct {
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	EmployeeRepo repository.EmployeeRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers:  deps.CustomerRepo,
		employees:  deps.EmployeeRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// SignupCustomerInput carries the self-registration form.
type SignupCustomerInput struct {
	CompanyID   string
	ZoneID      *string
	FullName    string
	Email       string
	PhoneNumber string
	Address     string
	Password    string
}

// SignupCustomer registers a new subscriber account.
func (s *AuthService) SignupCustomer(ctx context.Context, input SignupCustomerInput) (*domain.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required", nil)
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, apperrors.NewValidationError("full name is required", nil)
	}
	if input.CompanyID == "" {
		return nil, apperrors.NewValidationError("company is required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("an account with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	customer := &domain.Customer{
		CompanyID:    input.CompanyID,
		ZoneID:       input.ZoneID,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		Address:      strings.TrimSpace(input.Address),
		Status:       domain.CustomerStatusActive,
		PasswordHash: hash,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// LoginCustomer authenticates a subscriber.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.Customer, string, time.Time, error) {
	customer, err := s.customers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return customer, token, exp, nil
}

// LoginEmployee authenticates staff and returns a role-bearing token.
func (s *AuthService) LoginEmployee(ctx context.Context, email, password string) (*domain.Employee, string, time.Time, error) {
	employee, err := s.employees.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if employee.Status != domain.EmployeeStatusActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(employee.ID, domain.SubjectTypeEmployee, &employee.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return employee, token, exp, nil
}

// ChangeCustomerPassword verifies the current password before replacing it.
func (s *AuthService) ChangeCustomerPassword(ctx context.Context, customerID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(customer.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	return apperrors.MapError(s.customers.UpdatePassword(ctx, customerID, hash))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
