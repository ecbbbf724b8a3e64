package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/http/handlers"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Orders         *handlers.OrdersHandler
	Shop           *handlers.ShopHandler
	Invoices       *handlers.InvoicesHandler
	Payments       *handlers.PaymentsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/customers/signup", cfg.Auth.SignupCustomer)
	authGroup.Post("/customers/login", cfg.Auth.LoginCustomer)
	authGroup.Post("/staff/login", cfg.Auth.LoginEmployee)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireCustomer(), cfg.Auth.ChangePassword)

	// Public order flow: prospective customers have no login yet.
	app.Get("/plans", cfg.Orders.ListPlans)
	app.Post("/orders", cfg.Orders.Checkout)
	app.Post("/orders/pay", cfg.Orders.Pay)
	app.Get("/orders/:number", cfg.Orders.Track)

	// Gateway redirect and callback surfaces; credentials are correlation ids.
	app.Get("/payments/return", cfg.Payments.HostedReturn)
	app.Get("/payments/cancel", cfg.Payments.HostedCancel)
	app.Get("/payments/product/return", cfg.Payments.HostedReturn)
	app.Get("/payments/product/cancel", cfg.Payments.HostedCancel)
	app.Get("/payments/bkash/callback", cfg.Payments.TokenizedCallback)
	app.Get("/payments/bkash/mock", cfg.Payments.MockCheckout)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)
	tickets.Post("/:id/rating", cfg.Tickets.RateTicket)

	shop := app.Group("/shop")
	shop.Get("/products", cfg.Shop.ListProducts)
	shop.Get("/products/:id", cfg.Shop.GetProduct)
	shop.Get("/orders/:number/track", cfg.Shop.TrackOrder)
	shopAuth := shop.Group("", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	shopAuth.Post("/products/:id/reviews", cfg.Shop.AddReview)
	shopAuth.Get("/cart", cfg.Shop.GetCart)
	shopAuth.Post("/cart", cfg.Shop.AddToCart)
	shopAuth.Put("/cart", cfg.Shop.UpdateCartItem)
	shopAuth.Post("/checkout", cfg.Shop.Checkout)
	shopAuth.Get("/orders", cfg.Shop.ListOrders)

	invoices := app.Group("/invoices", cfg.AuthMiddleware.Handle, auth.RequireCustomer())
	invoices.Get("", cfg.Invoices.ListInvoices)
	invoices.Post("/:id/pay", cfg.Invoices.PayInvoice)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle,
		auth.RequireEmployeeRole(domain.EmployeeRoleTechnician, domain.EmployeeRoleManager, domain.EmployeeRoleAdmin))
	staff.Get("/tickets", cfg.StaffTickets.ListTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetTicket)
	staff.Patch("/tickets/:id/status", cfg.StaffTickets.UpdateStatus)
	staff.Post("/tickets/:id/replies", cfg.StaffTickets.AddReply)

	staffAdmin := staff.Group("", auth.RequireEmployeeRole(domain.EmployeeRoleManager, domain.EmployeeRoleAdmin))
	staffAdmin.Get("/notifications", cfg.Notifications.ListUnread)
	staffAdmin.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
}
