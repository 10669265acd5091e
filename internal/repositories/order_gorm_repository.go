package repositories

import (
	"errors"

	"storefront/internal/apperrors"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAll retrieves all orders with their item snapshots.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, apperrors.NewPersistence("get all orders", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its item snapshots.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, apperrors.NewPersistence("get order by ID", err)
	}
	return &order, nil
}

// GetByUser retrieves all orders belonging to a user.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders, "user_id = ?", userID).Error; err != nil {
		return nil, apperrors.NewPersistence("get orders by user", err)
	}
	return orders, nil
}

// CreateWithItems creates the order and its snapshots atomically. Stock is
// decremented with `UPDATE ... WHERE stock >= quantity`; zero rows affected
// means another checkout got there first and the transaction rolls back
// with a StockError.
func (r *GORMOrderRepository) CreateWithItems(order *models.Order, items []models.OrderItem) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
			items[i].OrderID = order.ID

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", items[i].ProductID, items[i].Quantity).
				Update("stock", gorm.Expr("stock - ?", items[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var product models.Product
				name := items[i].ProductID
				available := 0
				if tx.First(&product, "id = ?", items[i].ProductID).Error == nil {
					name = product.Name
					available = product.Stock
				}
				return &apperrors.StockError{
					ProductName: name,
					Requested:   items[i].Quantity,
					Available:   available,
				}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		var stockErr *apperrors.StockError
		if errors.As(err, &stockErr) {
			return err
		}
		return apperrors.NewPersistence("create order", err)
	}

	order.Items = items
	return nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperrors.NewPersistence("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("order", id)
	}
	return nil
}

// ApplyCapture records a completed payment and its effect on the order as a
// single transaction.
func (r *GORMOrderRepository) ApplyCapture(order *models.Order, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	payment.OrderID = order.ID

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction: two deliveries of the same
		// completion event may both have passed the caller's pre-check.
		var count int64
		err := tx.Model(&models.Payment{}).
			Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusCompleted).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateCapture
		}

		updates := map[string]interface{}{
			"status":          models.OrderStatusCompleted,
			"total":           payment.Amount,
			"total_paid":      payment.Amount,
			"discount_amount": payment.DiscountAmount,
			"promotion_code":  payment.PromotionCode,
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCapture) {
			return err
		}
		return apperrors.NewPersistence("apply payment capture", err)
	}

	order.Status = models.OrderStatusCompleted
	order.Total = payment.Amount
	order.TotalPaid = &payment.Amount
	order.DiscountAmount = &payment.DiscountAmount
	order.PromotionCode = payment.PromotionCode
	return nil
}

// CreatePayment inserts a payment row.
func (r *GORMOrderRepository) CreatePayment(payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if err := r.db.Create(payment).Error; err != nil {
		return apperrors.NewPersistence("create payment", err)
	}
	return nil
}

// PaymentsByOrder retrieves all payment rows recorded against an order.
func (r *GORMOrderRepository) PaymentsByOrder(orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Find(&payments, "order_id = ?", orderID).Error; err != nil {
		return nil, apperrors.NewPersistence("get payments by order", err)
	}
	return payments, nil
}

// CompletedPaymentExists reports whether a completed payment has already
// been recorded for the order. Webhook idempotency keys off this check.
func (r *GORMOrderRepository) CompletedPaymentExists(orderID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, apperrors.NewPersistence("count completed payments", err)
	}
	return count > 0, nil
}

// UpdatePaymentStatus updates the status of a payment row.
func (r *GORMOrderRepository) UpdatePaymentStatus(paymentID string, status models.PaymentStatus) error {
	res := r.db.Model(&models.Payment{}).Where("id = ?", paymentID).Update("status", status)
	if res.Error != nil {
		return apperrors.NewPersistence("update payment status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("payment", paymentID)
	}
	return nil
}

// CreateReturnRequest inserts a return request.
func (r *GORMOrderRepository) CreateReturnRequest(request *models.ReturnRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if err := r.db.Create(request).Error; err != nil {
		return apperrors.NewPersistence("create return request", err)
	}
	return nil
}

// GetReturnRequest retrieves a return request by its ID.
func (r *GORMOrderRepository) GetReturnRequest(id string) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("return request", id)
		}
		return nil, apperrors.NewPersistence("get return request", err)
	}
	return &request, nil
}

// UpdateReturnStatus updates the status of a return request.
func (r *GORMOrderRepository) UpdateReturnStatus(id string, status models.ReturnStatus) error {
	res := r.db.Model(&models.ReturnRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperrors.NewPersistence("update return status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFound("return request", id)
	}
	return nil
}
