package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// OrdersHandler manages the public subscription order flow. Prospective
// customers have no portal login yet, so these endpoints authenticate by
// order number plus the email captured at checkout.
type OrdersHandler struct {
	service *service.CheckoutService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(checkoutService *service.CheckoutService) *OrdersHandler {
	return &OrdersHandler{service: checkoutService}
}

// ListPlans GET /plans.
func (h *OrdersHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.service.ListPlans(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		items = append(items, dto.PlanResponse{
			ID:              plan.ID,
			Name:            plan.Name,
			Price:           plan.Price,
			DiscountPercent: plan.DiscountPercent,
			FinalPrice:      plan.FinalPrice(),
			Features:        plan.Features,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Checkout POST /orders.
func (h *OrdersHandler) Checkout(c *fiber.Ctx) error {
	var req dto.PlanCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PlanID == "" {
		return apperrors.NewValidationError("plan_id required", nil)
	}

	result, err := h.service.CheckoutPlan(c.UserContext(), service.PlanCheckoutInput{
		PlanID:   req.PlanID,
		Details:  req.Details.Domain(),
		PayNow:   req.PayNow,
		ClientIP: c.IP(),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": checkoutResponse(result)})
}

// Pay POST /orders/pay settles a pay-later order with a fresh session.
func (h *OrdersHandler) Pay(c *fiber.Ctx) error {
	var req dto.PayOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OrderNumber == "" || req.Email == "" {
		return apperrors.NewValidationError("order_number and email required", nil)
	}

	result, err := h.service.PayForOrder(c.UserContext(), req.OrderNumber, req.Email, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": checkoutResponse(result)})
}

// Track GET /orders/:number.
func (h *OrdersHandler) Track(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	order, err := h.service.TrackOrder(c.UserContext(), c.Params("number"), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

func checkoutResponse(r *service.CheckoutResult) dto.CheckoutResponse {
	return dto.CheckoutResponse{
		OrderNumber: r.OrderNumber,
		Amount:      r.Amount,
		CheckoutURL: r.CheckoutURL,
	}
}

func orderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		OrderNumber:   o.OrderNumber,
		PlanName:      o.PlanSnapshot.Name,
		Amount:        o.Amount,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		TransactionID: o.TransactionID,
		CheckoutURL:   o.CheckoutURL,
		CreatedAt:     o.CreatedAt,
	}
}
