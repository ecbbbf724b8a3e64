package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// AuthHandler manages login and credential endpoints for both populations.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// SignupCustomer POST /auth/customers/signup.
func (h *AuthHandler) SignupCustomer(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customer, err := h.service.SignupCustomer(c.UserContext(), service.SignupCustomerInput{
		CompanyID:   req.CompanyID,
		ZoneID:      req.ZoneID,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SubjectProfile{
		ID:       customer.ID,
		FullName: customer.FullName,
		Email:    customer.Email,
		Type:     string(domain.SubjectTypeCustomer),
		Status:   string(customer.Status),
	}})
}

// LoginCustomer POST /auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	customer, token, expiresAt, err := h.service.LoginCustomer(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Subject: dto.SubjectProfile{
			ID:       customer.ID,
			FullName: customer.FullName,
			Email:    customer.Email,
			Type:     string(domain.SubjectTypeCustomer),
			Status:   string(customer.Status),
		},
	}})
}

// LoginEmployee POST /auth/staff/login.
func (h *AuthHandler) LoginEmployee(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	employee, token, expiresAt, err := h.service.LoginEmployee(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	role := string(employee.Role)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Subject: dto.SubjectProfile{
			ID:       employee.ID,
			FullName: employee.FullName,
			Email:    employee.Email,
			Type:     string(domain.SubjectTypeEmployee),
			Role:     &role,
		},
	}})
}

// ChangePassword POST /auth/password/change (customer only).
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.ChangeCustomerPassword(c.UserContext(), principal.Customer.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}
