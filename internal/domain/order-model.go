package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ShippingAddress is the normalized address copied from the payment
// provider once checkout completes
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// IsZero reports whether no address was collected
func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// Order represents a purchase. Until the payment-completion webhook arrives
// it stays pending with an empty shipping address; the checkout session id
// is the sole correlation key to the hosted payment session.
type Order struct {
	ID                string          `json:"id" db:"id"`
	UserID            string          `json:"user_id" db:"user_id"`
	Status            string          `json:"status" db:"status"`
	CardType          string          `json:"card_type" db:"card_type"`
	CardColor         string          `json:"card_color" db:"card_color"`
	CardStyle         string          `json:"card_style" db:"card_style"`
	Quantity          int             `json:"quantity" db:"quantity"`
	TotalAmount       float64         `json:"total_amount" db:"total_amount"`
	Shipping          ShippingAddress `json:"shipping"`
	CheckoutSessionID string          `json:"checkout_session_id" db:"checkout_session_id"`
	PaymentIntentID   string          `json:"payment_intent_id" db:"payment_intent_id"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Card is the physical product record, provisioned one per purchased unit
// after payment confirmation
type Card struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	OrderID   string    `json:"order_id" db:"order_id"`
	CardType  string    `json:"card_type" db:"card_type"`
	CardColor string    `json:"card_color" db:"card_color"`
	CardStyle string    `json:"card_style" db:"card_style"`
	NFCID     string    `json:"nfc_id" db:"nfc_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CheckoutRequest is the input to the checkout session handler
type CheckoutRequest struct {
	CardType  string `json:"cardType"`
	CardColor string `json:"cardColor"`
	CardStyle string `json:"cardStyle"`
	Quantity  int    `json:"quantity"`
	UserID    string `json:"userId"`
}

// Validate rejects malformed checkout input. Unknown card types are an
// error, never a silent fallback to the cheap tier.
func (r *CheckoutRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	if !ValidCardType(r.CardType) {
		return fmt.Errorf("unknown card type %q", r.CardType)
	}
	return nil
}

const nfcAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewNFCID generates a card identifier: NFC- followed by 8 random base-36
// characters, upper-cased
func NewNFCID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = nfcAlphabet[int(b)%len(nfcAlphabet)]
	}
	return "NFC-" + string(buf)
}
