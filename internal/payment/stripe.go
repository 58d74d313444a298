package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// StripeClient drives hosted checkout sessions and webhook verification
// against the real Stripe API
type StripeClient struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	logger        *zap.Logger
}

// NewStripeClient configures a Stripe-backed payment client
func NewStripeClient(secretKey, webhookSecret, successURL, cancelURL string, logger *zap.Logger) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeClient{
		api:           api,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		logger:        logger,
	}
}

// CreateCheckoutSession requests a hosted checkout page with a single line
// item of UnitAmount x Quantity, embedding the order metadata
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(params.Currency),
					UnitAmount: stripe.Int64(params.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.ProductName),
					},
				},
				Quantity: stripe.Int64(params.Quantity),
			},
		},
	}
	sessionParams.Context = ctx
	for k, v := range params.Metadata() {
		sessionParams.AddMetadata(k, v)
	}

	s, err := c.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		c.logger.Error("Stripe checkout session creation failed",
			zap.Error(err),
			zap.String("order_id", params.OrderID))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	c.logger.Info("Checkout session created",
		zap.String("session_id", s.ID),
		zap.String("order_id", params.OrderID))

	return &CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: params.Metadata(),
	}, nil
}

// ParseWebhookEvent verifies the Stripe-Signature header against the shared
// webhook secret and decodes the event
func (c *StripeClient) ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		session, err := parseSessionPayload(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Session = session
	}

	return out, nil
}
