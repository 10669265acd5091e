package models

import "time"

// PaymentStatus enumerates the states of a capture attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment records one capture attempt/result against an order. At most one
// Payment per order is completed at a time prior to refund.
type Payment struct {
	ID             string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string        `json:"order_id" gorm:"index;type:varchar(36)"`
	TransactionID  *string       `json:"transaction_id" gorm:"type:varchar(255)"` // Provider reference, nil until known
	Amount         float64       `json:"amount"`
	Status         PaymentStatus `json:"status" gorm:"type:varchar(20)"`
	Method         string        `json:"method" gorm:"type:varchar(50)"`
	DiscountAmount float64       `json:"discount_amount"`
	PromotionCode  *string       `json:"promotion_code" gorm:"type:varchar(100)"`
	CreatedAt      time.Time     `json:"created_at"`
}
