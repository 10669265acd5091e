package notifications

import (
	"bytes"
	"fmt"

	"storefront/internal/models"
)

// Narrow read interfaces so the invoice renderer can be wired to the GORM
// repositories without depending on them.
type orderSource interface {
	GetByID(id string) (*models.Order, error)
}

type userSource interface {
	GetByID(id string) (*models.User, error)
}

type productSource interface {
	GetByID(id string) (*models.Product, error)
}

// TextInvoiceGenerator renders plain-text invoices. The production PDF
// renderer lives behind the same interface and is out of core scope.
type TextInvoiceGenerator struct {
	orders   orderSource
	users    userSource
	products productSource
}

// NewTextInvoiceGenerator creates a TextInvoiceGenerator.
func NewTextInvoiceGenerator(orders orderSource, users userSource, products productSource) *TextInvoiceGenerator {
	return &TextInvoiceGenerator{orders: orders, users: users, products: products}
}

// OrderData flattens an order for rendering.
func (g *TextInvoiceGenerator) OrderData(orderID string) (*OrderData, error) {
	order, err := g.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	user, err := g.users.GetByID(order.UserID)
	if err != nil {
		return nil, err
	}

	data := &OrderData{
		OrderID:       order.ID,
		CustomerEmail: user.Email,
		Total:         order.Total,
	}
	for _, item := range order.Items {
		name := item.ProductID
		if product, err := g.products.GetByID(item.ProductID); err == nil {
			name = product.Name
		}
		data.Lines = append(data.Lines, OrderLine{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return data, nil
}

// PDF renders the invoice document.
func (g *TextInvoiceGenerator) PDF(data *OrderData) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Invoice for order %s\n", data.OrderID)
	fmt.Fprintf(&buf, "Customer: %s\n\n", data.CustomerEmail)
	for _, line := range data.Lines {
		fmt.Fprintf(&buf, "%-40s x%-4d %10.2f\n", line.Name, line.Quantity, line.UnitPrice)
	}
	fmt.Fprintf(&buf, "\nTotal: %.2f\n", data.Total)
	return buf.Bytes(), nil
}
