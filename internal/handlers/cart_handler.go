package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:id", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleEmptyCart)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

// HandleGetCart returns the cart enriched with live product data.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	view, err := h.service.GetCart(currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// AddItemRequest is the body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem adds a product to the cart (additive for duplicates).
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.AddItem(currentUserID(c), req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item added to cart",
	})
}

// UpdateItemRequest is the body for replacing a cart line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdateItem replaces a line's quantity.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.UpdateItem(currentUserID(c), c.Params("id"), req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart item updated"})
}

// HandleRemoveItem removes a line; removing an absent line succeeds.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(currentUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart item removed"})
}

// HandleEmptyCart deletes the cart wholesale.
func (h *CartHandler) HandleEmptyCart(c *fiber.Ctx) error {
	if err := h.service.EmptyCart(currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart emptied"})
}

// CheckoutRequest is the body for POST /cart/checkout.
type CheckoutRequest struct {
	AddressID   string `json:"address_id"`
	FrontendURL string `json:"frontend_url"`
}

// HandleCheckout creates a pending order from the cart and returns the
// provider session redirect URL.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.service.Checkout(c.Context(), currentUserID(c), req.AddressID, req.FrontendURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
