// Package payments wraps the external payment processor behind a narrow
// interface so services can be tested against fakes.
package payments

import "context"

// EventCheckoutCompleted is the only provider event type that triggers
// reconciliation; every other type is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// MetadataOrderID is the metadata key binding a hosted session to an order.
const MetadataOrderID = "order_id"

// Session is the provider-hosted checkout flow bound to one order.
// Amounts are in minor units (cents).
type Session struct {
	ID             string
	URL            string
	TransactionID  string // provider payment reference, empty until known
	AmountTotal    int64
	AmountDiscount int64
	PromotionCode  string // human-readable code, best-effort
	PaymentMethod  string
	Metadata       map[string]string
}

// Event is an asynchronous provider notification. Session is populated for
// checkout completion events.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// SessionRequest describes the hosted session to create. Amount is in minor
// units.
type SessionRequest struct {
	OrderID     string
	Amount      int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// Provider is the payment-processor client consumed by the reconciliation
// engine and the checkout flow.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	CreateRefund(ctx context.Context, transactionID string) error
	// VerifyWebhook validates the delivery signature and parses the event
	// envelope. A signature failure is a hard rejection.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
