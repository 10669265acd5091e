package repositories

import "storefront/internal/models"

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// IncrementStock adds quantity back onto a product's available stock.
	// Used when an order is cancelled.
	IncrementStock(id string, quantity int) error
}
