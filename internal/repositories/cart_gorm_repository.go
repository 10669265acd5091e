package repositories

import (
	"errors"

	"storefront/internal/apperrors"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetOrCreateByUser returns the user's cart, creating one lazily.
func (r *GORMCartRepository) GetOrCreateByUser(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewPersistence("get cart by user", err)
	}

	cart = models.Cart{ID: uuid.New().String(), UserID: userID}
	if err := r.db.Create(&cart).Error; err != nil {
		return nil, apperrors.NewPersistence("create cart", err)
	}
	return &cart, nil
}

// GetItem retrieves one cart item, scoped to the given cart so a caller can
// never touch another user's line.
func (r *GORMCartRepository) GetItem(cartID, itemID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("cart item", itemID)
		}
		return nil, apperrors.NewPersistence("get cart item", err)
	}
	return &item, nil
}

// AddItem inserts a new cart line.
func (r *GORMCartRepository) AddItem(item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		return apperrors.NewPersistence("add cart item", err)
	}
	return nil
}

// UpdateItemQuantity replaces the quantity of an existing line.
func (r *GORMCartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	res := r.db.Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity)
	if res.Error != nil {
		return apperrors.NewPersistence("update cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("cart item", itemID)
	}
	return nil
}

// RemoveItem deletes a line from the cart. Removing an absent item is a no-op.
func (r *GORMCartRepository) RemoveItem(cartID, itemID string) error {
	if err := r.db.Delete(&models.CartItem{}, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		return apperrors.NewPersistence("remove cart item", err)
	}
	return nil
}

// DeleteByUser removes the user's cart wholesale, items included.
func (r *GORMCartRepository) DeleteByUser(userID string) error {
	var cart models.Cart
	err := r.db.First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.NewPersistence("get cart for delete", err)
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if err != nil {
		return apperrors.NewPersistence("delete cart", err)
	}
	return nil
}
