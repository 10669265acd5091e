package models

import "time"

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusAwaitingReturn OrderStatus = "awaiting_return"
	OrderStatusReturned       OrderStatus = "returned"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusAwaitingReturn, OrderStatusReturned:
		return true
	}
	return false
}

// Order represents a customer order. Total holds the display amount; once a
// payment is captured it is overwritten with the post-discount captured
// amount, and TotalPaid/DiscountAmount are set together (both nil while
// unpaid).
type Order struct {
	ID             string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string      `json:"user_id" gorm:"index;type:varchar(36)"`
	AddressID      string      `json:"address_id" gorm:"type:varchar(36)"`
	Status         OrderStatus `json:"status" gorm:"type:varchar(20)"`
	Total          float64     `json:"total"`
	TotalPaid      *float64    `json:"total_paid"`
	DiscountAmount *float64    `json:"discount_amount"`
	PromotionCode  *string     `json:"promotion_code" gorm:"type:varchar(100)"`
	Items          []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// OrderItem is an immutable snapshot of a product line at order time.
// It is created atomically with its Order and never mutated afterwards.
type OrderItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string    `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"` // Price at the time of order
	CreatedAt time.Time `json:"created_at"`
}
