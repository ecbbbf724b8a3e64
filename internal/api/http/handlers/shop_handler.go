package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-portal/internal/api/dto"
	"github.com/spec-kit/isp-portal/internal/auth"
	"github.com/spec-kit/isp-portal/internal/domain"
	"github.com/spec-kit/isp-portal/internal/service"
	apperrors "github.com/spec-kit/isp-portal/pkg/util"
)

// ShopHandler manages the hardware shop catalog, cart, and checkout.
type ShopHandler struct {
	checkout *service.CheckoutService
	cart     *service.CartService
}

// NewShopHandler constructs handler.
func NewShopHandler(checkoutService *service.CheckoutService, cartService *service.CartService) *ShopHandler {
	return &ShopHandler{checkout: checkoutService, cart: cartService}
}

// ListProducts GET /shop/products.
func (h *ShopHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.checkout.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, productResponse(product))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetProduct GET /shop/products/:id.
func (h *ShopHandler) GetProduct(c *fiber.Ctx) error {
	product, reviews, err := h.checkout.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	reviewItems := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		reviewItems = append(reviewItems, dto.ReviewResponse{
			ID:        review.ID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			CreatedAt: review.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{
		"data":    productResponse(product),
		"reviews": reviewItems,
	})
}

// AddReview POST /shop/products/:id/reviews.
func (h *ShopHandler) AddReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	review, err := h.checkout.AddProductReview(c.UserContext(), principal.Customer.ID, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReviewResponse{
		ID:        review.ID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}})
}

// GetCart GET /shop/cart.
func (h *ShopHandler) GetCart(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	cart, err := h.cart.Get(c.UserContext(), principal.Customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CartResponse{Items: cart}})
}

// AddToCart POST /shop/cart.
func (h *ShopHandler) AddToCart(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		return apperrors.NewValidationError("product_id and positive quantity required", nil)
	}

	cart, err := h.cart.AddItem(c.UserContext(), principal.Customer.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CartResponse{Items: cart}})
}

// UpdateCartItem PUT /shop/cart. Quantity zero removes the line.
func (h *ShopHandler) UpdateCartItem(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProductID == "" || req.Quantity < 0 {
		return apperrors.NewValidationError("product_id and non-negative quantity required", nil)
	}

	cart, err := h.cart.SetItem(c.UserContext(), principal.Customer.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CartResponse{Items: cart}})
}

// Checkout POST /shop/checkout.
func (h *ShopHandler) Checkout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.ProductCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.checkout.CheckoutProducts(c.UserContext(), service.ProductCheckoutInput{
		CustomerID:     principal.Customer.ID,
		Details:        req.Details.Domain(),
		InsideDhaka:    req.InsideDhaka,
		PromoCode:      req.PromoCode,
		CashOnDelivery: req.CashOnDelivery,
		ClientIP:       c.IP(),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": checkoutResponse(result)})
}

// ListOrders GET /shop/orders.
func (h *ShopHandler) ListOrders(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	orders, err := h.checkout.ListShopOrders(c.UserContext(), principal.Customer.Email)
	if err != nil {
		return err
	}
	items := make([]dto.ProductOrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, productOrderResponse(order))
	}
	return c.JSON(fiber.Map{"data": items})
}

// TrackOrder GET /shop/orders/:number. Public: the order number plus the
// checkout email is the credential.
func (h *ShopHandler) TrackOrder(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	status, err := h.checkout.TrackShopOrder(c.UserContext(), c.Params("number"), email)
	if err != nil {
		return err
	}
	resp := productOrderResponse(status.Order)
	resp.LiveCourierStatus = status.LiveCourierStatus
	return c.JSON(fiber.Map{"data": resp})
}

func productResponse(p *domain.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		FinalPrice:      p.FinalPrice(),
		Stock:           p.Stock,
		ImageURL:        p.ImageURL,
	}
}

func productOrderResponse(o *domain.ProductOrder) dto.ProductOrderResponse {
	items := make([]dto.ProductOrderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.ProductOrderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return dto.ProductOrderResponse{
		OrderNumber:    o.OrderNumber,
		Items:          items,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		PromoCode:      o.PromoCode,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		CourierName:    o.CourierName,
		TrackingCode:   o.TrackingCode,
		CreatedAt:      o.CreatedAt,
	}
}
