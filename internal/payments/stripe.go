package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripePromotionCodeAPI interface {
	Get(id string, params *stripe.PromotionCodeParams) (*stripe.PromotionCode, error)
}

// StripeConfig configures the StripeProvider.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
	Logger        *zap.Logger
}

// StripeProvider implements Provider using Stripe hosted checkout.
type StripeProvider struct {
	sessions      stripeSessionAPI
	refunds       stripeRefundAPI
	promoCodes    stripePromotionCodeAPI
	webhookSecret string
	timeout       time.Duration
	logger        *zap.Logger
}

// NewStripeProvider constructs a StripeProvider from the given configuration.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("stripe: api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sc := client.New(cfg.APIKey, nil)
	return &StripeProvider{
		sessions:      sc.CheckoutSessions,
		refunds:       sc.Refunds,
		promoCodes:    sc.PromotionCodes,
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// CreateCheckoutSession creates a hosted checkout session carrying the order
// id in its metadata.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "usd"
	}
	description := req.Description
	if description == "" {
		description = "Order " + req.OrderID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:          stripe.String(req.SuccessURL),
		CancelURL:           stripe.String(req.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		Metadata:            map[string]string{MetadataOrderID: req.OrderID},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}
	params.Context = ctx

	session, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	p.logger.Info("stripe checkout session created",
		zap.String("session_id", session.ID),
		zap.String("order_id", req.OrderID))

	return sessionFromStripe(session), nil
}

// GetSession retrieves a session with discount detail expanded. Promotion
// code resolution is best-effort: a missing or unexpandable field never
// fails the lookup.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	params.AddExpand("total_details.breakdown")

	session, err := p.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}

	out := sessionFromStripe(session)
	if codeID := promotionCodeID(session); codeID != "" {
		out.PromotionCode = p.resolvePromotionCode(ctx, codeID)
	}
	return out, nil
}

// CreateRefund issues a full refund against a payment intent.
func (p *StripeProvider) CreateRefund(ctx context.Context, transactionID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
	}
	params.Context = ctx

	if _, err := p.refunds.New(params); err != nil {
		return fmt.Errorf("stripe: create refund: %w", err)
	}

	p.logger.Info("stripe refund created", zap.String("transaction_id", transactionID))
	return nil
}

// VerifyWebhook checks the delivery signature and parses the event.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: webhook signature verification failed: %w", err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if out.Type == EventCheckoutCompleted {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session payload: %w", err)
		}
		out.Session = sessionFromStripe(&session)
	}
	return out, nil
}

// resolvePromotionCode turns a promotion code id into its human-readable
// code. Failures are swallowed; the code is an enrichment, not a
// correctness requirement.
func (p *StripeProvider) resolvePromotionCode(ctx context.Context, codeID string) string {
	params := &stripe.PromotionCodeParams{}
	params.Context = ctx
	code, err := p.promoCodes.Get(codeID, params)
	if err != nil {
		p.logger.Warn("stripe promotion code lookup failed",
			zap.String("promotion_code_id", codeID), zap.Error(err))
		return ""
	}
	return code.Code
}

func sessionFromStripe(s *stripe.CheckoutSession) *Session {
	if s == nil {
		return &Session{}
	}
	out := &Session{
		ID:             s.ID,
		URL:            s.URL,
		AmountTotal:    s.AmountTotal,
		AmountDiscount: discountAmount(s),
		PaymentMethod:  paymentMethod(s),
		Metadata:       s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.TransactionID = s.PaymentIntent.ID
	}
	return out
}

// discountAmount and the accessors below tolerate every nil along the way:
// sessions without discounts simply report zero.
func discountAmount(s *stripe.CheckoutSession) int64 {
	if s.TotalDetails == nil {
		return 0
	}
	return s.TotalDetails.AmountDiscount
}

func promotionCodeID(s *stripe.CheckoutSession) string {
	if s.TotalDetails == nil || s.TotalDetails.Breakdown == nil {
		return ""
	}
	for _, d := range s.TotalDetails.Breakdown.Discounts {
		if d == nil || d.Discount == nil || d.Discount.PromotionCode == nil {
			continue
		}
		return d.Discount.PromotionCode.ID
	}
	return ""
}

func paymentMethod(s *stripe.CheckoutSession) string {
	if len(s.PaymentMethodTypes) > 0 {
		return s.PaymentMethodTypes[0]
	}
	return "card"
}
