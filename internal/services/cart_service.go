package services

import (
	"context"
	"math"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// CartService aggregates a user's cart: mutation, validated totals and the
// checkout that turns the cart into a pending order.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
	addressRepo repositories.AddressRepository
	payments    *PaymentService
	logger      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	addressRepo repositories.AddressRepository,
	payments *PaymentService,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		payments:    payments,
		logger:      logger,
	}
}

// CartLine is one enriched line of the cart view, carrying live product data.
type CartLine struct {
	ItemID    string  `json:"item_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
	ImageURL  string  `json:"image_url"`
	LineTotal float64 `json:"line_total"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	CartID string     `json:"cart_id"`
	Items  []CartLine `json:"items"`
	Total  float64    `json:"total"`
}

// CheckoutResult carries the new order and the provider redirect URL.
type CheckoutResult struct {
	OrderID string `json:"order_id"`
	URL     string `json:"url"`
}

// GetOrCreateCart returns the id of the user's cart, creating it lazily.
func (s *CartService) GetOrCreateCart(userID string) (string, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return "", err
	}
	return cart.ID, nil
}

// AddItem adds quantity of a product to the cart. If a line for the product
// already exists the quantity is additive; the combined quantity is bounded
// by the product's current stock.
func (s *CartService) AddItem(userID, productID string, quantity int) error {
	if quantity <= 0 {
		return apperrors.NewValidation("quantity must be a positive integer")
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}

	for _, item := range cart.Items {
		if item.ProductID == productID {
			combined := item.Quantity + quantity
			if combined > product.Stock {
				return &apperrors.StockError{
					ProductName: product.Name,
					Requested:   combined,
					Available:   product.Stock,
				}
			}
			return s.cartRepo.UpdateItemQuantity(item.ID, combined)
		}
	}

	if quantity > product.Stock {
		return &apperrors.StockError{
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	return s.cartRepo.AddItem(&models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// UpdateItem replaces the quantity of a cart line. The new quantity is an
// absolute value, bounded by current stock.
func (s *CartService) UpdateItem(userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return apperrors.NewValidation("quantity must be a positive integer")
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}

	item, err := s.cartRepo.GetItem(cart.ID, itemID)
	if err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return &apperrors.StockError{
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	return s.cartRepo.UpdateItemQuantity(itemID, quantity)
}

// RemoveItem removes a line from the cart. Idempotent.
func (s *CartService) RemoveItem(userID, itemID string) error {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}
	return s.cartRepo.RemoveItem(cart.ID, itemID)
}

// EmptyCart removes the user's cart wholesale. Idempotent.
func (s *CartService) EmptyCart(userID string) error {
	return s.cartRepo.DeleteByUser(userID)
}

// GetCart returns the cart enriched with live product data and totals
// rounded to two decimals per line and in aggregate.
func (s *CartService) GetCart(userID string) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cart.ID, Items: make([]CartLine, 0, len(cart.Items))}
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		line := CartLine{
			ItemID:    item.ID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
			Stock:     product.Stock,
			ImageURL:  product.ImageURL,
			LineTotal: round2(product.Price * float64(item.Quantity)),
		}
		view.Items = append(view.Items, line)
		view.Total += line.LineTotal
	}
	view.Total = round2(view.Total)
	return view, nil
}

// Checkout turns a non-empty cart into a pending order with snapshot items
// at re-validated prices, then requests a hosted payment session. The cart
// itself is untouched: it is cleared only when the payment is confirmed, so
// an abandoned checkout leaves the cart intact.
func (s *CartService) Checkout(ctx context.Context, userID, addressID, frontendURL string) (*CheckoutResult, error) {
	if addressID == "" {
		return nil, apperrors.NewValidation("address_id is required")
	}
	if frontendURL == "" {
		return nil, apperrors.NewValidation("frontend_url is required")
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.NewValidation("cart is empty")
	}

	address, err := s.addressRepo.GetByID(addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, apperrors.NewNotFound("address", addressID)
	}

	// Re-validate price and stock against current product state, not the
	// values cached when the item was added.
	var total float64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > product.Stock {
			return nil, &apperrors.StockError{
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Stock,
			}
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		total += round2(product.Price * float64(item.Quantity))
	}

	order := &models.Order{
		UserID:    userID,
		AddressID: addressID,
		Status:    models.OrderStatusPending,
		Total:     round2(total),
	}
	if err := s.orderRepo.CreateWithItems(order, items); err != nil {
		return nil, err
	}

	session, err := s.payments.CreateCheckoutSession(ctx, order.ID, frontendURL)
	if err != nil {
		// The pending order stays; the session can be re-requested.
		return nil, err
	}

	s.logger.Info("checkout created order",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total", order.Total))

	return &CheckoutResult{OrderID: order.ID, URL: session.URL}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
