package services_test

import (
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestCreateProduct_RejectsNonPositivePrice(t *testing.T) {
	repo := new(MockProductRepository)
	svc := services.NewProductService(repo, zap.NewNop())

	err := svc.CreateProduct(&models.Product{Name: "Ceramic Mug", Price: 0, Stock: 5})

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestUpdateProduct_RejectsNegativeStock(t *testing.T) {
	repo := new(MockProductRepository)
	svc := services.NewProductService(repo, zap.NewNop())

	// updates skip the handler's validator, so the service guards them
	err := svc.UpdateProduct(&models.Product{ID: "prod-1", Name: "Ceramic Mug", Price: 9.5, Stock: -1})

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	repo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestUpdateProduct_PassesValidProduct(t *testing.T) {
	repo := new(MockProductRepository)
	svc := services.NewProductService(repo, zap.NewNop())

	product := &models.Product{ID: "prod-1", Name: "Ceramic Mug", Price: 9.5, Stock: 5}
	repo.On("Update", product).Return(nil)

	assert.NoError(t, svc.UpdateProduct(product))
	repo.AssertExpectations(t)
}

func TestDeleteProduct_PropagatesNotFound(t *testing.T) {
	repo := new(MockProductRepository)
	svc := services.NewProductService(repo, zap.NewNop())

	repo.On("Delete", "missing").Return(apperrors.NewNotFound("product", "missing"))

	err := svc.DeleteProduct("missing")

	var nfErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}
