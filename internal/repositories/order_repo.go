package repositories

import (
	"errors"

	"storefront/internal/models"
)

// ErrDuplicateCapture is returned by ApplyCapture when the order already
// holds a completed payment. It lets concurrent deliveries of the same
// completion event collapse into one capture.
var ErrDuplicateCapture = errors.New("order already has a completed payment")

// OrderRepository defines the interface for order, payment and return
// request data access.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	// CreateWithItems atomically creates the order, its item snapshots and
	// decrements product stock with a conditional update so concurrent
	// checkouts cannot oversell.
	CreateWithItems(order *models.Order, items []models.OrderItem) error
	UpdateStatus(id string, status models.OrderStatus) error
	// ApplyCapture marks the order completed and records the completed
	// payment in one transaction. The order's total is overwritten with the
	// captured (post-discount) amount. Returns ErrDuplicateCapture if a
	// completed payment is already recorded for the order.
	ApplyCapture(order *models.Order, payment *models.Payment) error

	CreatePayment(payment *models.Payment) error
	PaymentsByOrder(orderID string) ([]models.Payment, error)
	CompletedPaymentExists(orderID string) (bool, error)
	UpdatePaymentStatus(paymentID string, status models.PaymentStatus) error

	CreateReturnRequest(request *models.ReturnRequest) error
	GetReturnRequest(id string) (*models.ReturnRequest, error)
	UpdateReturnStatus(id string, status models.ReturnStatus) error
}
