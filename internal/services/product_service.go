package services

import (
	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// ProductService handles business logic for the catalog.
type ProductService struct {
	repo   repositories.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock))
	return nil
}

// UpdateProduct updates an existing product. The same sanity rules apply as
// on creation: updates arrive without a second validator pass.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.logger.Info("product updated", zap.String("product_id", product.ID))
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func validateProduct(product *models.Product) error {
	if product.Price <= 0 {
		return apperrors.NewValidation("product price must be positive")
	}
	if product.Stock < 0 {
		return apperrors.NewValidation("product stock cannot be negative")
	}
	return nil
}
