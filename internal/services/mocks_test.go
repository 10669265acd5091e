package services_test

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/payments"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementStock(id string, quantity int) error {
	args := m.Called(id, quantity)
	return args.Error(0)
}

// MockCartRepository is a mock implementation of repositories.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetOrCreateByUser(userID string) (*models.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepository) GetItem(cartID, itemID string) (*models.CartItem, error) {
	args := m.Called(cartID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartItem), args.Error(1)
}

func (m *MockCartRepository) AddItem(item *models.CartItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	args := m.Called(itemID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveItem(cartID, itemID string) error {
	args := m.Called(cartID, itemID)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteByUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) CreateWithItems(order *models.Order, items []models.OrderItem) error {
	args := m.Called(order, items)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) ApplyCapture(order *models.Order, payment *models.Payment) error {
	args := m.Called(order, payment)
	return args.Error(0)
}

func (m *MockOrderRepository) CreatePayment(payment *models.Payment) error {
	args := m.Called(payment)
	return args.Error(0)
}

func (m *MockOrderRepository) PaymentsByOrder(orderID string) ([]models.Payment, error) {
	args := m.Called(orderID)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockOrderRepository) CompletedPaymentExists(orderID string) (bool, error) {
	args := m.Called(orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(paymentID string, status models.PaymentStatus) error {
	args := m.Called(paymentID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateReturnRequest(request *models.ReturnRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockOrderRepository) GetReturnRequest(id string) (*models.ReturnRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReturnRequest), args.Error(1)
}

func (m *MockOrderRepository) UpdateReturnStatus(id string, status models.ReturnStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockAddressRepository is a mock implementation of repositories.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(address *models.Address) error {
	args := m.Called(address)
	return args.Error(0)
}

func (m *MockAddressRepository) GetByID(id string) (*models.Address, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Address), args.Error(1)
}

func (m *MockAddressRepository) GetByUser(userID string) ([]models.Address, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Address), args.Error(1)
}

// MockProvider is a mock implementation of payments.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func (m *MockProvider) GetSession(ctx context.Context, id string) (*payments.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func (m *MockProvider) CreateRefund(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockProvider) VerifyWebhook(payload []byte, signature string) (*payments.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Event), args.Error(1)
}

// MockMailer is a mock implementation of notifications.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, template string, data map[string]interface{}, attachments ...notifications.Attachment) error {
	args := m.Called(to, subject, template, data, attachments)
	return args.Error(0)
}

// MockInvoiceGenerator is a mock implementation of notifications.InvoiceGenerator
type MockInvoiceGenerator struct {
	mock.Mock
}

func (m *MockInvoiceGenerator) OrderData(orderID string) (*notifications.OrderData, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.OrderData), args.Error(1)
}

func (m *MockInvoiceGenerator) PDF(data *notifications.OrderData) ([]byte, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockNotifier is a mock implementation of notifications.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAdmin(message string) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAllUsers(message string) error {
	args := m.Called(message)
	return args.Error(0)
}
