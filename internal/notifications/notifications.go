// Package notifications defines the thin collaborator contracts consumed by
// the order lifecycle: outbound mail, invoice rendering and real-time
// fan-out. All of them are best-effort from the caller's point of view.
package notifications

import "go.uber.org/zap"

// Attachment is a named binary blob attached to an outbound email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer dispatches templated emails.
type Mailer interface {
	Send(to, subject, template string, data map[string]interface{}, attachments ...Attachment) error
}

// OrderData is the flattened order view handed to the invoice renderer.
type OrderData struct {
	OrderID       string
	CustomerEmail string
	Lines         []OrderLine
	Total         float64
}

// OrderLine is one invoice line.
type OrderLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// InvoiceGenerator renders an order into a PDF invoice.
type InvoiceGenerator interface {
	OrderData(orderID string) (*OrderData, error)
	PDF(data *OrderData) ([]byte, error)
}

// Notifier fans a message out to connected dashboard clients.
type Notifier interface {
	NotifyAdmin(message string) error
	NotifyAllUsers(message string) error
}

// LogMailer is a Mailer that only logs. Used where no SMTP relay is wired,
// and as the default in local development.
type LogMailer struct {
	Logger *zap.Logger
}

// Send logs the outbound mail instead of delivering it.
func (m *LogMailer) Send(to, subject, template string, data map[string]interface{}, attachments ...Attachment) error {
	m.Logger.Info("mail dispatched",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("template", template),
		zap.Int("attachments", len(attachments)))
	return nil
}
