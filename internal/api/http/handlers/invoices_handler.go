package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// InvoicesHandler manages a customer's monthly bills.
type InvoicesHandler struct {
	service *service.CheckoutService
}

// NewInvoicesHandler constructs handler.
func NewInvoicesHandler(checkoutService *service.CheckoutService) *InvoicesHandler {
	return &InvoicesHandler{service: checkoutService}
}

// ListInvoices GET /invoices.
func (h *InvoicesHandler) ListInvoices(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	invoices, err := h.service.ListInvoices(c.UserContext(), principal.Customer.ID)
	if err != nil {
		return err
	}
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for _, invoice := range invoices {
		items = append(items, dto.InvoiceResponse{
			ID:            invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			Amount:        invoice.Amount,
			Status:        invoice.Status,
			PackageName:   invoice.PackageName,
			IssueDate:     invoice.IssueDate,
			PaidAt:        invoice.PaidAt,
			PaymentMethod: invoice.PaymentMethod,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// PayInvoice POST /invoices/:id/pay opens a tokenized-checkout session and
// hands the provider URL back to the browser.
func (h *InvoicesHandler) PayInvoice(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	checkoutURL, err := h.service.InitiateInvoicePayment(c.UserContext(), principal.Customer.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"checkout_url": checkoutURL}})
}
