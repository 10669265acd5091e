package repositories

import "storefront/internal/models"

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetOrCreateByUser returns the user's cart with items preloaded,
	// creating an empty one if none exists yet.
	GetOrCreateByUser(userID string) (*models.Cart, error)
	GetItem(cartID, itemID string) (*models.CartItem, error)
	AddItem(item *models.CartItem) error
	UpdateItemQuantity(itemID string, quantity int) error
	// RemoveItem is idempotent: removing an absent item is not an error.
	RemoveItem(cartID, itemID string) error
	// DeleteByUser removes the user's cart and all its items. Idempotent.
	DeleteByUser(userID string) error
}
