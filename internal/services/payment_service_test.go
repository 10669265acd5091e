package services_test

import (
	"context"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newPaymentFixture() (*services.PaymentService, *MockOrderRepository, *MockCartRepository, *MockUserRepository, *MockProvider, *MockMailer, *MockInvoiceGenerator, *MockNotifier) {
	orderRepo := new(MockOrderRepository)
	cartRepo := new(MockCartRepository)
	userRepo := new(MockUserRepository)
	provider := new(MockProvider)
	mailer := new(MockMailer)
	invoices := new(MockInvoiceGenerator)
	notifier := new(MockNotifier)

	svc := services.NewPaymentService(orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier, zap.NewNop())
	return svc, orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier
}

func completionEvent(sessionID, orderID string) *payments.Event {
	return &payments.Event{
		ID:   "evt_1",
		Type: payments.EventCheckoutCompleted,
		Session: &payments.Session{
			ID:       sessionID,
			Metadata: map[string]string{payments.MetadataOrderID: orderID},
		},
	}
}

func TestHandleEvent_IgnoresOtherEventTypes(t *testing.T) {
	svc, orderRepo, _, _, _, _, _, _ := newPaymentFixture()

	err := svc.HandleEvent(context.Background(), &payments.Event{ID: "evt_1", Type: "payment_intent.created"})

	assert.NoError(t, err)
	orderRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestHandleEvent_RejectsMissingOrderMetadata(t *testing.T) {
	svc, orderRepo, _, _, provider, _, _, _ := newPaymentFixture()

	provider.On("GetSession", mock.Anything, "cs_1").Return(&payments.Session{ID: "cs_1"}, nil)

	event := &payments.Event{
		ID:      "evt_1",
		Type:    payments.EventCheckoutCompleted,
		Session: &payments.Session{ID: "cs_1"},
	}
	err := svc.HandleEvent(context.Background(), event)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	orderRepo.AssertNotCalled(t, "ApplyCapture", mock.Anything, mock.Anything)
}

func TestHandleEvent_AppliesCaptureWithDiscountBreakdown(t *testing.T) {
	svc, orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier := newPaymentFixture()

	// the detail endpoint carries the expanded discount breakdown
	provider.On("GetSession", mock.Anything, "cs_1").Return(&payments.Session{
		ID:             "cs_1",
		TransactionID:  "pi_42",
		AmountTotal:    8000,
		AmountDiscount: 2000,
		PromotionCode:  "WELCOME20",
		PaymentMethod:  "card",
		Metadata:       map[string]string{payments.MetadataOrderID: "order-1"},
	}, nil)

	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusPending, Total: 100,
	}, nil)
	orderRepo.On("CompletedPaymentExists", "order-1").Return(false, nil)
	orderRepo.On("ApplyCapture", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.OrderID == "order-1" &&
			p.Amount == 80.00 &&
			p.DiscountAmount == 20.00 &&
			p.Status == models.PaymentStatusCompleted &&
			p.Method == "card" &&
			p.TransactionID != nil && *p.TransactionID == "pi_42" &&
			p.PromotionCode != nil && *p.PromotionCode == "WELCOME20"
	})).Return(nil)

	cartRepo.On("DeleteByUser", "user-1").Return(nil)
	userRepo.On("GetByID", "user-1").Return(&models.User{ID: "user-1", Email: "a@b.test"}, nil)
	invoices.On("OrderData", "order-1").Return(&notifications.OrderData{OrderID: "order-1"}, nil)
	invoices.On("PDF", mock.Anything).Return([]byte("%PDF"), nil)
	mailer.On("Send", "a@b.test", "Order confirmation", "order_confirmation", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdmin", mock.Anything).Return(nil)

	err := svc.HandleEvent(context.Background(), completionEvent("cs_1", "order-1"))

	assert.NoError(t, err)
	orderRepo.AssertExpectations(t)
	cartRepo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestHandleEvent_DuplicateDeliveryIsNoOp(t *testing.T) {
	svc, orderRepo, cartRepo, _, provider, _, _, _ := newPaymentFixture()

	provider.On("GetSession", mock.Anything, "cs_1").Return(&payments.Session{
		ID:       "cs_1",
		Metadata: map[string]string{payments.MetadataOrderID: "order-1"},
	}, nil)
	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusCompleted,
	}, nil)
	orderRepo.On("CompletedPaymentExists", "order-1").Return(true, nil)

	err := svc.HandleEvent(context.Background(), completionEvent("cs_1", "order-1"))

	assert.NoError(t, err)
	orderRepo.AssertNotCalled(t, "ApplyCapture", mock.Anything, mock.Anything)
	cartRepo.AssertNotCalled(t, "DeleteByUser", mock.Anything)
}

func TestHandleEvent_ConcurrentCaptureLosesQuietly(t *testing.T) {
	svc, orderRepo, cartRepo, _, provider, mailer, _, _ := newPaymentFixture()

	provider.On("GetSession", mock.Anything, "cs_1").Return(&payments.Session{
		ID:          "cs_1",
		AmountTotal: 5000,
		Metadata:    map[string]string{payments.MetadataOrderID: "order-1"},
	}, nil)
	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusPending, Total: 50,
	}, nil)
	// the pre-check raced a concurrent delivery; the transaction catches it
	orderRepo.On("CompletedPaymentExists", "order-1").Return(false, nil)
	orderRepo.On("ApplyCapture", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateCapture)

	err := svc.HandleEvent(context.Background(), completionEvent("cs_1", "order-1"))

	assert.NoError(t, err)
	// the winning delivery owns the side effects
	cartRepo.AssertNotCalled(t, "DeleteByUser", mock.Anything)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEvent_FallsBackToPayloadWhenDetailLookupFails(t *testing.T) {
	svc, orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier := newPaymentFixture()

	provider.On("GetSession", mock.Anything, "cs_1").Return(nil, assert.AnError)

	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusPending, Total: 100,
	}, nil)
	orderRepo.On("CompletedPaymentExists", "order-1").Return(false, nil)
	// no breakdown available: discount defaults to zero, no promotion code
	orderRepo.On("ApplyCapture", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.OrderID == "order-1" && p.Amount == 100.00 &&
			p.DiscountAmount == 0 && p.PromotionCode == nil
	})).Return(nil)

	cartRepo.On("DeleteByUser", "user-1").Return(nil)
	userRepo.On("GetByID", "user-1").Return(&models.User{ID: "user-1", Email: "a@b.test"}, nil)
	invoices.On("OrderData", "order-1").Return(nil, assert.AnError)
	mailer.On("Send", "a@b.test", "Order confirmation", "order_confirmation", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyAdmin", mock.Anything).Return(nil)

	event := completionEvent("cs_1", "order-1")
	event.Session.AmountTotal = 10000
	err := svc.HandleEvent(context.Background(), event)

	assert.NoError(t, err)
	orderRepo.AssertExpectations(t)
}

func TestHandleEvent_SideEffectFailuresDoNotFailReconciliation(t *testing.T) {
	svc, orderRepo, cartRepo, userRepo, provider, mailer, invoices, notifier := newPaymentFixture()

	provider.On("GetSession", mock.Anything, "cs_1").Return(&payments.Session{
		ID:          "cs_1",
		AmountTotal: 5000,
		Metadata:    map[string]string{payments.MetadataOrderID: "order-1"},
	}, nil)
	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusPending, Total: 50,
	}, nil)
	orderRepo.On("CompletedPaymentExists", "order-1").Return(false, nil)
	orderRepo.On("ApplyCapture", mock.Anything, mock.Anything).Return(nil)

	cartRepo.On("DeleteByUser", "user-1").Return(assert.AnError)
	userRepo.On("GetByID", "user-1").Return(&models.User{ID: "user-1", Email: "a@b.test"}, nil)
	invoices.On("OrderData", "order-1").Return(nil, assert.AnError)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	notifier.On("NotifyAdmin", mock.Anything).Return(assert.AnError)

	err := svc.HandleEvent(context.Background(), completionEvent("cs_1", "order-1"))

	assert.NoError(t, err)
	orderRepo.AssertExpectations(t)
}

func TestCreateCheckoutSession_BuildsMinorUnitRequest(t *testing.T) {
	svc, orderRepo, _, _, provider, _, _, _ := newPaymentFixture()

	orderRepo.On("GetByID", "order-1").Return(&models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusPending, Total: 19.99,
	}, nil)
	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req payments.SessionRequest) bool {
		return req.OrderID == "order-1" && req.Amount == 1999 && req.Currency == "usd"
	})).Return(&payments.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

	session, err := svc.CreateCheckoutSession(context.Background(), "order-1", "https://shop.example")

	assert.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)
	provider.AssertExpectations(t)
}

func TestCreateCheckoutSession_WrapsProviderFailure(t *testing.T) {
	svc, orderRepo, _, _, provider, _, _, _ := newPaymentFixture()

	orderRepo.On("GetByID", "order-1").Return(&models.Order{ID: "order-1", Total: 10}, nil)
	provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	session, err := svc.CreateCheckoutSession(context.Background(), "order-1", "https://shop.example")

	assert.Nil(t, session)
	var provErr *apperrors.ProviderError
	assert.ErrorAs(t, err, &provErr)
}

func TestRefund_MarksRefundedAfterProviderConfirms(t *testing.T) {
	svc, orderRepo, _, _, provider, _, _, _ := newPaymentFixture()

	txn := "pi_42"
	payment := &models.Payment{ID: "pay-1", OrderID: "order-1", TransactionID: &txn, Amount: 50, Status: models.PaymentStatusCompleted}

	provider.On("CreateRefund", mock.Anything, "pi_42").Return(nil)
	orderRepo.On("UpdatePaymentStatus", "pay-1", models.PaymentStatusRefunded).Return(nil)

	err := svc.Refund(context.Background(), payment)

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	orderRepo.AssertExpectations(t)
}

func TestRefund_ProviderFailureLeavesPaymentCompleted(t *testing.T) {
	svc, orderRepo, _, _, provider, _, _, _ := newPaymentFixture()

	txn := "pi_42"
	payment := &models.Payment{ID: "pay-1", OrderID: "order-1", TransactionID: &txn, Amount: 50, Status: models.PaymentStatusCompleted}

	provider.On("CreateRefund", mock.Anything, "pi_42").Return(assert.AnError)

	err := svc.Refund(context.Background(), payment)

	var provErr *apperrors.ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	orderRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything)
}

func TestRefund_RequiresTransactionID(t *testing.T) {
	svc, _, _, _, provider, _, _, _ := newPaymentFixture()

	payment := &models.Payment{ID: "pay-1", OrderID: "order-1", Amount: 50, Status: models.PaymentStatusCompleted}

	err := svc.Refund(context.Background(), payment)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	provider.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
}
