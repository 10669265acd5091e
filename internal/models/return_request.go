package models

import "time"

// ReturnStatus enumerates the states of a return request.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
)

// ReturnRequest is a user-initiated request to reverse a shipped or
// completed order. Approved and rejected are terminal, set once by an admin.
type ReturnRequest struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string       `json:"order_id" gorm:"index;type:varchar(36)"`
	UserID      string       `json:"user_id" gorm:"index;type:varchar(36)"`
	Reason      string       `json:"reason" gorm:"type:varchar(500)"`
	TotalAmount float64      `json:"total_amount"` // Copied from the order's total_paid at request time
	Status      ReturnStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
