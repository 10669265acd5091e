package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/payments"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

// PaymentService is the payment reconciliation engine: it creates hosted
// checkout sessions, applies asynchronous provider events to local state
// idempotently, and issues refunds.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	userRepo  repositories.UserRepository
	provider  payments.Provider
	mailer    notifications.Mailer
	invoices  notifications.InvoiceGenerator
	notifier  notifications.Notifier
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	userRepo repositories.UserRepository,
	provider payments.Provider,
	mailer notifications.Mailer,
	invoices notifications.InvoiceGenerator,
	notifier notifications.Notifier,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		provider:  provider,
		mailer:    mailer,
		invoices:  invoices,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateCheckoutSession requests a hosted payment session for the order.
// It is a pure provider request: no Order or Payment record is touched.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, orderID, frontendURL string) (*payments.Session, error) {
	if orderID == "" {
		return nil, apperrors.NewValidation("order_id is required")
	}
	if frontendURL == "" {
		return nil, apperrors.NewValidation("frontend_url is required")
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.SessionRequest{
		OrderID:     order.ID,
		Amount:      toMinorUnits(order.Total),
		Currency:    "usd",
		Description: fmt.Sprintf("Order %s", order.ID),
		SuccessURL:  frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   frontendURL + "/checkout/cancel",
	})
	if err != nil {
		return nil, apperrors.NewProvider("create checkout session", err)
	}

	metrics.CheckoutSessionsTotal.Inc()
	return session, nil
}

// VerifyWebhook validates a webhook delivery's signature and parses the
// event envelope. A signature failure means the delivery is rejected
// outright, with no event processing attempted.
func (s *PaymentService) VerifyWebhook(payload []byte, signature string) (*payments.Event, error) {
	return s.provider.VerifyWebhook(payload, signature)
}

// HandleEvent applies an asynchronous provider event. Only checkout
// completion acts; everything else is acknowledged and ignored. Delivery is
// at-least-once: a completion event for an order that already has a
// completed payment is a no-op.
func (s *PaymentService) HandleEvent(ctx context.Context, event *payments.Event) error {
	if event.Type != payments.EventCheckoutCompleted {
		metrics.PaymentEventsTotal.WithLabelValues("ignored").Inc()
		s.logger.Debug("ignoring provider event", zap.String("type", event.Type))
		return nil
	}

	session := event.Session
	if session == nil {
		metrics.PaymentEventsTotal.WithLabelValues("failed").Inc()
		return apperrors.NewValidation("completion event carries no session")
	}

	// The session detail endpoint has the expanded discount breakdown the
	// webhook payload lacks. Enrichment only: fall back to the payload.
	if detailed, err := s.provider.GetSession(ctx, session.ID); err == nil {
		detailed.Metadata = mergeMetadata(session.Metadata, detailed.Metadata)
		session = detailed
	} else {
		s.logger.Warn("session detail lookup failed, using event payload",
			zap.String("session_id", session.ID), zap.Error(err))
	}

	orderID := session.Metadata[payments.MetadataOrderID]
	if orderID == "" {
		metrics.PaymentEventsTotal.WithLabelValues("failed").Inc()
		return apperrors.NewValidation("completion event has no order_id metadata")
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}

	exists, err := s.orderRepo.CompletedPaymentExists(orderID)
	if err != nil {
		return err
	}
	if exists {
		metrics.PaymentEventsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("duplicate completion event, already reconciled",
			zap.String("order_id", orderID), zap.String("event_id", event.ID))
		return nil
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		Amount:         fromMinorUnits(session.AmountTotal),
		Status:         models.PaymentStatusCompleted,
		Method:         session.PaymentMethod,
		DiscountAmount: fromMinorUnits(session.AmountDiscount),
	}
	if session.TransactionID != "" {
		txn := session.TransactionID
		payment.TransactionID = &txn
	}
	if session.PromotionCode != "" {
		code := session.PromotionCode
		payment.PromotionCode = &code
	}

	if err := s.orderRepo.ApplyCapture(order, payment); err != nil {
		// A concurrent delivery of the same event may have captured first.
		if errors.Is(err, repositories.ErrDuplicateCapture) {
			metrics.PaymentEventsTotal.WithLabelValues("duplicate").Inc()
			s.logger.Info("concurrent completion event, already reconciled",
				zap.String("order_id", orderID), zap.String("event_id", event.ID))
			return nil
		}
		metrics.PaymentEventsTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.PaymentEventsTotal.WithLabelValues("applied").Inc()
	s.logger.Info("payment reconciled",
		zap.String("order_id", order.ID),
		zap.Float64("amount", payment.Amount),
		zap.Float64("discount", payment.DiscountAmount))

	// Everything below is best-effort: the capture is recorded, and a
	// redelivery of this event will now be a duplicate no-op.
	if err := s.cartRepo.DeleteByUser(order.UserID); err != nil {
		s.logger.Error("failed to clear cart after payment",
			zap.String("user_id", order.UserID), zap.Error(err))
	}

	s.sendConfirmation(order)

	if err := s.notifier.NotifyAdmin(fmt.Sprintf("order %s paid (%.2f)", order.ID, payment.Amount)); err != nil {
		s.logger.Error("admin notification failed", zap.String("order_id", order.ID), zap.Error(err))
	}

	return nil
}

// Refund issues a provider refund for one payment and marks the row
// refunded only after provider confirmation. On provider failure the row
// stays completed so the refund can be retried later.
func (s *PaymentService) Refund(ctx context.Context, payment *models.Payment) error {
	if payment.TransactionID == nil || *payment.TransactionID == "" {
		return apperrors.NewValidation("payment %s has no transaction id", payment.ID)
	}

	if err := s.provider.CreateRefund(ctx, *payment.TransactionID); err != nil {
		metrics.RefundsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("refund failed, payment left completed",
			zap.String("payment_id", payment.ID), zap.Error(err))
		return apperrors.NewProvider("refund", err)
	}

	if err := s.orderRepo.UpdatePaymentStatus(payment.ID, models.PaymentStatusRefunded); err != nil {
		return err
	}

	metrics.RefundsTotal.WithLabelValues("succeeded").Inc()
	payment.Status = models.PaymentStatusRefunded
	return nil
}

// sendConfirmation emails the customer their invoice. Failures are logged,
// never propagated.
func (s *PaymentService) sendConfirmation(order *models.Order) {
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil {
		s.logger.Error("cannot resolve customer for confirmation email",
			zap.String("order_id", order.ID), zap.Error(err))
		return
	}

	var attachments []notifications.Attachment
	if data, err := s.invoices.OrderData(order.ID); err == nil {
		if pdf, err := s.invoices.PDF(data); err == nil {
			attachments = append(attachments, notifications.Attachment{
				Filename: fmt.Sprintf("invoice-%s.pdf", order.ID),
				Content:  pdf,
			})
		} else {
			s.logger.Warn("invoice rendering failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	} else {
		s.logger.Warn("invoice data lookup failed", zap.String("order_id", order.ID), zap.Error(err))
	}

	err = s.mailer.Send(user.Email, "Order confirmation", "order_confirmation", map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total,
	}, attachments...)
	if err != nil {
		s.logger.Error("confirmation email failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func mergeMetadata(base, overlay map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
