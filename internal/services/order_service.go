package services

import (
	"context"
	"fmt"
	"math"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// totalTolerance is the floating tolerance used when deciding whether the
// stored total was overwritten with the captured amount.
const totalTolerance = 0.0001

// OrderService owns the order lifecycle: status transitions, their side
// effects (refunds, restock, emails, fan-out) and the return sub-workflow.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	payments    *PaymentService
	mailer      notifications.Mailer
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	payments *PaymentService,
	mailer notifications.Mailer,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		payments:    payments,
		mailer:      mailer,
		logger:      logger,
	}
}

// CancelResult is returned from a successful user cancellation.
type CancelResult struct {
	Message        string  `json:"message"`
	RefundedAmount float64 `json:"refundedAmount"`
}

// DisplayTotal recovers the pre-discount sticker price when the stored
// total was overwritten with the post-discount captured amount at payment
// time; otherwise the stored total is returned as-is.
func DisplayTotal(order *models.Order) float64 {
	if order.TotalPaid != nil && order.DiscountAmount != nil &&
		math.Abs(order.Total-*order.TotalPaid) < totalTolerance {
		return round2(*order.TotalPaid + *order.DiscountAmount)
	}
	return order.Total
}

func applyDisplayTotal(order *models.Order) *models.Order {
	order.Total = DisplayTotal(order)
	return order
}

// GetOrder returns one order. Non-admin callers only see their own.
func (s *OrderService) GetOrder(orderID, userID string, admin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !admin && order.UserID != userID {
		return nil, apperrors.NewNotFound("order", orderID)
	}
	return applyDisplayTotal(order), nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *OrderService) ListUserOrders(userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		applyDisplayTotal(&orders[i])
	}
	return orders, nil
}

// ListAllOrders returns every order. Admin only.
func (s *OrderService) ListAllOrders() ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		applyDisplayTotal(&orders[i])
	}
	return orders, nil
}

// UpdateStatus is the admin status transition. Shipment and delivery only
// notify; returned additionally refunds every completed payment. Side
// effects are best-effort: the status change is the source of truth.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus, trackingNumber string) error {
	if !models.ValidOrderStatus(status) {
		return apperrors.NewValidation("invalid order status: %s", status)
	}
	// Cancellation carries restock and refund side effects and belongs to
	// the owner; a bare status write would strand both.
	if status == models.OrderStatusCancelled {
		return apperrors.NewState("orders are cancelled through the cancel operation, not a status update")
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return err
	}

	switch status {
	case models.OrderStatusShipped:
		data := map[string]interface{}{"order_id": orderID}
		if trackingNumber != "" {
			data["tracking_number"] = trackingNumber
		}
		s.sendOrderMail(order, "Your order has shipped", "order_shipped", data)
	case models.OrderStatusDelivered:
		s.sendOrderMail(order, "Your order was delivered", "order_delivered",
			map[string]interface{}{"order_id": orderID})
	case models.OrderStatusReturned:
		refunded := s.refundCompletedPayments(ctx, orderID)
		s.sendOrderMail(order, "Your return is complete", "return_completed",
			map[string]interface{}{"order_id": orderID, "refunded_amount": refunded})
	}

	return nil
}

// Cancel is the user-initiated cancellation. Permitted from pending and
// processing only; it restocks every snapshot line, refunds every completed
// payment and emails the customer the refunded amount.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID string) (*CancelResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NewNotFound("order", orderID)
	}

	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusProcessing:
		// cancellable
	default:
		return nil, apperrors.NewState("order in status %s cannot be cancelled", order.Status)
	}

	if err := s.orderRepo.UpdateStatus(orderID, models.OrderStatusCancelled); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			s.logger.Error("restock failed",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	refunded := s.refundCompletedPayments(ctx, orderID)

	s.sendOrderMail(order, "Your order was cancelled", "order_cancelled",
		map[string]interface{}{"order_id": orderID, "refunded_amount": refunded})

	metrics.OrdersCancelledTotal.Inc()
	s.logger.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.Float64("refunded", refunded))

	return &CancelResult{
		Message:        fmt.Sprintf("Order %s cancelled", orderID),
		RefundedAmount: refunded,
	}, nil
}

// RequestReturn opens a return request on a shipped or completed order
// owned by the caller.
func (s *OrderService) RequestReturn(orderID, userID, reason string) (*models.ReturnRequest, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NewNotFound("order", orderID)
	}
	if order.Status != models.OrderStatusShipped && order.Status != models.OrderStatusCompleted {
		return nil, apperrors.NewValidation("order in status %s cannot be returned", order.Status)
	}

	var totalAmount float64
	if order.TotalPaid != nil {
		totalAmount = *order.TotalPaid
	}

	request := &models.ReturnRequest{
		OrderID:     orderID,
		UserID:      userID,
		Reason:      reason,
		TotalAmount: totalAmount,
		Status:      models.ReturnStatusPending,
	}
	if err := s.orderRepo.CreateReturnRequest(request); err != nil {
		return nil, err
	}
	return request, nil
}

// UpdateReturnStatus resolves a pending return request. Approval moves the
// order to awaiting_return and notifies the customer; the refund itself
// happens later, when an admin sets the order to returned. Rejection only
// notifies.
func (s *OrderService) UpdateReturnStatus(ctx context.Context, returnID string, status models.ReturnStatus) error {
	if status != models.ReturnStatusApproved && status != models.ReturnStatusRejected {
		return apperrors.NewValidation("return status must be approved or rejected")
	}

	request, err := s.orderRepo.GetReturnRequest(returnID)
	if err != nil {
		return err
	}
	if request.Status != models.ReturnStatusPending {
		return apperrors.NewState("return request already %s", request.Status)
	}

	order, err := s.orderRepo.GetByID(request.OrderID)
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdateReturnStatus(returnID, status); err != nil {
		return err
	}

	if status == models.ReturnStatusApproved {
		if err := s.orderRepo.UpdateStatus(order.ID, models.OrderStatusAwaitingReturn); err != nil {
			return err
		}
		s.sendOrderMail(order, "Your return was approved", "return_approved",
			map[string]interface{}{"order_id": order.ID, "return_id": returnID})
	} else {
		s.sendOrderMail(order, "Your return was rejected", "return_rejected",
			map[string]interface{}{"order_id": order.ID, "return_id": returnID})
	}

	return nil
}

// refundCompletedPayments refunds each completed payment on the order
// independently and returns the sum of amounts actually refunded. Provider
// failures are logged; the payment stays completed for a later retry.
func (s *OrderService) refundCompletedPayments(ctx context.Context, orderID string) float64 {
	payments, err := s.orderRepo.PaymentsByOrder(orderID)
	if err != nil {
		s.logger.Error("cannot list payments for refund",
			zap.String("order_id", orderID), zap.Error(err))
		return 0
	}

	var refunded float64
	for i := range payments {
		if payments[i].Status != models.PaymentStatusCompleted {
			continue
		}
		if err := s.payments.Refund(ctx, &payments[i]); err != nil {
			s.logger.Error("refund attempt failed",
				zap.String("order_id", orderID),
				zap.String("payment_id", payments[i].ID),
				zap.Error(err))
			continue
		}
		refunded += payments[i].Amount
	}
	return round2(refunded)
}

// sendOrderMail emails the order's owner. Failure is swallowed and logged.
func (s *OrderService) sendOrderMail(order *models.Order, subject, template string, data map[string]interface{}) {
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil {
		s.logger.Error("cannot resolve customer for email",
			zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	if err := s.mailer.Send(user.Email, subject, template, data); err != nil {
		s.logger.Error("email dispatch failed",
			zap.String("order_id", order.ID),
			zap.String("template", template),
			zap.Error(err))
	}
}
