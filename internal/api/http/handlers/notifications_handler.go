package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// NotificationsHandler exposes in-app alerts to company operators.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// ListUnread GET /staff/notifications.
func (h *NotificationsHandler) ListUnread(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	notifications, err := h.service.ListUnread(c.UserContext(), principal.Employee.CompanyID)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			RelatedID: n.RelatedID,
			CreatedAt: n.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /staff/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("employee required")
	}
	if err := h.service.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"read": true}})
}
