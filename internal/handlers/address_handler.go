package handlers

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for shipping addresses. Addresses
// are simple enough that the handler talks to the repository directly.
type AddressHandler struct {
	repo     repositories.AddressRepository
	validate *validator.Validate
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(repo repositories.AddressRepository) *AddressHandler {
	return &AddressHandler{
		repo:     repo,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the address routes with the Fiber app.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Get("/", h.HandleListAddresses)
	addressRoutes.Post("/", h.HandleCreateAddress)
}

// HandleListAddresses lists the caller's addresses.
func (h *AddressHandler) HandleListAddresses(c *fiber.Ctx) error {
	addresses, err := h.repo.GetByUser(currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(addresses)
}

// HandleCreateAddress adds an address for the caller.
func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	address.UserID = currentUserID(c)

	if err := h.validate.Struct(address); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.repo.Create(&address); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}
