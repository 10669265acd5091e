package handlers

import (
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and the return workflow.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers the user-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Post("/:id/return", h.HandleRequestReturn)
}

// RegisterAdminRoutes registers the admin order routes; mount behind the
// admin middleware.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/all", h.HandleListAllOrders)
	orderRoutes.Put("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Put("/returns/:id/status", h.HandleUpdateReturnStatus)
}

// HandleListOrders lists the caller's orders.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListUserOrders(currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleListAllOrders lists every order. Admin only.
func (h *OrderHandler) HandleListAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAllOrders()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.Params("id"), currentUserID(c), isAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdateStatusRequest is the body for the admin status endpoint.
type UpdateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

// HandleUpdateOrderStatus is the admin status transition endpoint.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	err := h.service.UpdateStatus(c.Context(), c.Params("id"), models.OrderStatus(req.Status), req.TrackingNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated to " + req.Status,
	})
}

// HandleCancelOrder is the user-initiated cancellation.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	result, err := h.service.Cancel(c.Context(), c.Params("id"), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ReturnRequestBody is the body for opening a return request.
type ReturnRequestBody struct {
	Reason string `json:"reason"`
}

// HandleRequestReturn opens a return request on the caller's order.
func (h *OrderHandler) HandleRequestReturn(c *fiber.Ctx) error {
	var req ReturnRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	request, err := h.service.RequestReturn(c.Params("id"), currentUserID(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// ReturnStatusRequest is the body for resolving a return request.
type ReturnStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateReturnStatus approves or rejects a pending return request.
func (h *OrderHandler) HandleUpdateReturnStatus(c *fiber.Ctx) error {
	var req ReturnStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	err := h.service.UpdateReturnStatus(c.Context(), c.Params("id"), models.ReturnStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Return request " + req.Status,
	})
}
