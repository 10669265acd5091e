package repositories

import "storefront/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
}

// AddressRepository defines the interface for shipping address data access.
type AddressRepository interface {
	Create(address *models.Address) error
	GetByID(id string) (*models.Address, error)
	GetByUser(userID string) ([]models.Address, error)
}
