package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/config"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// PaymentsHandler terminates the gateway redirect and callback surfaces. These
// endpoints are unauthenticated: the browser arrives here straight from the
// provider, and correlation ids are the only credentials either side holds.
type PaymentsHandler struct {
	reconciler *service.ReconcilerService
	appCfg     config.AppConfig
	gatewayB   config.GatewayBConfig
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(reconciler *service.ReconcilerService, appCfg config.AppConfig, gatewayB config.GatewayBConfig) *PaymentsHandler {
	return &PaymentsHandler{reconciler: reconciler, appCfg: appCfg, gatewayB: gatewayB}
}

// HostedReturn GET /payments/return. Provider A redirects the customer back
// here with the correlation id in order_id.
func (h *PaymentsHandler) HostedReturn(c *fiber.Ctx) error {
	outcome, err := h.reconciler.HandleHostedReturn(c.UserContext(), c.Query("order_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcomeResponse(outcome)})
}

// HostedCancel GET /payments/cancel. The customer backed out on the provider
// page; the pending gateway-initiated row is removed and stock restored.
func (h *PaymentsHandler) HostedCancel(c *fiber.Ctx) error {
	correlationID := c.Query("order_id")
	if correlationID != "" {
		h.reconciler.CleanupAbandonedSession(c.UserContext(), correlationID)
	}
	return c.JSON(fiber.Map{"data": dto.PaymentOutcomeResponse{
		Message: "payment canceled",
	}})
}

// TokenizedCallback GET /payments/bkash/callback. Provider B lands the
// customer here with paymentID and status query parameters.
func (h *PaymentsHandler) TokenizedCallback(c *fiber.Ctx) error {
	paymentID := c.Query("paymentID")
	if paymentID == "" {
		return apperrors.NewValidationError("paymentID required", nil)
	}
	outcome, err := h.reconciler.HandleTokenizedCallback(c.UserContext(), paymentID, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcomeResponse(outcome)})
}

// MockCheckout GET /payments/bkash/mock. Demo-credential sessions point the
// browser at this page instead of the real provider; the buttons complete or
// cancel the simulated payment through the normal callback.
func (h *PaymentsHandler) MockCheckout(c *fiber.Ctx) error {
	paymentID := c.Query("paymentID")
	amount := c.Query("amount")
	if paymentID == "" {
		return apperrors.NewValidationError("paymentID required", nil)
	}

	callback := h.appCfg.AbsoluteURL(h.gatewayB.CallbackPath)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Demo Payment</title></head>
<body>
  <h1>Demo Payment</h1>
  <p>Payment ID: %s</p>
  <p>Amount: %s BDT</p>
  <p><a href="%s?paymentID=%s&status=success">Pay Now</a></p>
  <p><a href="%s?paymentID=%s&status=cancel">Cancel</a></p>
</body>
</html>`, paymentID, amount, callback, paymentID, callback, paymentID)

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

func outcomeResponse(o *service.ReturnOutcome) dto.PaymentOutcomeResponse {
	return dto.PaymentOutcomeResponse{
		Settled:   o.Settled,
		Duplicate: o.Duplicate,
		Reference: o.Reference,
		Message:   o.Message,
	}
}
