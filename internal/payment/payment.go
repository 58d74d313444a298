package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cardlink/internal/domain"
)

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = errors.New("invalid signature")

// EventCheckoutSessionCompleted is the only event type this system acts on
const EventCheckoutSessionCompleted = "checkout.session.completed"

// CheckoutParams describes the single-line-item hosted checkout session the
// storefront needs
type CheckoutParams struct {
	OrderID     string
	UserID      string
	CardType    string
	CardColor   string
	CardStyle   string
	Quantity    int64
	UnitAmount  int64 // minor currency units per card
	Currency    string
	ProductName string
}

// Metadata returns the opaque key/value pairs embedded in the session so the
// webhook can reconstruct the purchase
func (p CheckoutParams) Metadata() map[string]string {
	return map[string]string{
		"order_id":   p.OrderID,
		"user_id":    p.UserID,
		"card_type":  p.CardType,
		"card_color": p.CardColor,
		"card_style": p.CardStyle,
		"quantity":   fmt.Sprintf("%d", p.Quantity),
	}
}

// CheckoutSession is the provider-hosted payment page instance
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Metadata        map[string]string
	Shipping        domain.ShippingAddress
}

// WebhookEvent is a verified asynchronous notification from the provider.
// Session is populated for checkout.session.* events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

// Client is the payment-processor capability. Two variants exist, selected
// once at startup: Stripe-backed and offline (demo mode).
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	ParseWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error)
}

// Wire shapes shared by the Stripe payload and the offline variant.
type sessionPayload struct {
	ID              string            `json:"id"`
	PaymentIntent   string            `json:"payment_intent"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails *detailsPayload   `json:"customer_details"`
	ShippingDetails *detailsPayload   `json:"shipping_details"`
}

type detailsPayload struct {
	Name    string          `json:"name"`
	Address *addressPayload `json:"address"`
}

type addressPayload struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func parseSessionPayload(raw json.RawMessage) (*CheckoutSession, error) {
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session payload: %w", err)
	}

	session := &CheckoutSession{
		ID:              p.ID,
		PaymentIntentID: p.PaymentIntent,
		Metadata:        p.Metadata,
	}

	// Prefer the explicit shipping block, fall back to customer details
	details := p.ShippingDetails
	if details == nil || details.Address == nil {
		details = p.CustomerDetails
	}
	if details != nil && details.Address != nil {
		session.Shipping = domain.ShippingAddress{
			Name:       details.Name,
			Line1:      details.Address.Line1,
			Line2:      details.Address.Line2,
			City:       details.Address.City,
			PostalCode: details.Address.PostalCode,
			Country:    details.Address.Country,
		}
	}

	return session, nil
}
