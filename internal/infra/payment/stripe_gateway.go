package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"tableorder/internal/usecase"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
)

// StripeGateway はStripe Checkoutの呼び出し。
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// DI
func NewStripeGateway(secretKey string, webhookSecret string, logger *zap.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret, logger: logger}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p usecase.CheckoutSessionParams) (usecase.GatewaySession, error) {
	params := buildSessionParams(p)
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return usecase.GatewaySession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	g.logger.Info("created checkout session",
		zap.String("session_id", s.ID),
		zap.String("restaurant_id", p.Metadata["restaurant_id"]),
		zap.String("table_id", p.Metadata["table_id"]))
	return toGatewaySession(s), nil
}

// 領収書URLのため latest_charge まで展開する
func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (usecase.GatewaySession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.latest_charge")

	s, err := session.Get(sessionID, params)
	if err != nil {
		return usecase.GatewaySession{}, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return toGatewaySession(s), nil
}

func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := session.Expire(sessionID, params); err != nil {
		return fmt.Errorf("stripe: expire checkout session: %w", err)
	}
	g.logger.Info("expired checkout session", zap.String("session_id", sessionID))
	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (usecase.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return usecase.GatewayEvent{}, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := usecase.GatewayEvent{Type: string(event.Type)}
	switch out.Type {
	case usecase.GatewayEventSessionCompleted, usecase.GatewayEventAsyncPaymentSucceeded, usecase.GatewayEventSessionExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return usecase.GatewayEvent{}, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		out.Session = toGatewaySession(&s)
	}
	return out, nil
}

func buildSessionParams(p usecase.CheckoutSessionParams) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.Lines))
	for _, l := range p.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func toGatewaySession(s *stripe.CheckoutSession) usecase.GatewaySession {
	out := usecase.GatewaySession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if s.PaymentIntent != nil && s.PaymentIntent.LatestCharge != nil {
		out.ReceiptURL = s.PaymentIntent.LatestCharge.ReceiptURL
	}
	return out
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)
