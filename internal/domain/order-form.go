package domain

import (
	"fmt"
	"time"
)

// Wizard steps
const (
	StepProductSelection = 0
	StepShippingDetails  = 1
	StepReview           = 2
)

// OrderForm is the in-progress multi-step order wizard. It is ephemeral:
// owned by one session, never persisted, destroyed on submit or expiry.
type OrderForm struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Step   int    `json:"step"`

	// Step 0: product selection
	CardType  string `json:"card_type"`
	CardColor string `json:"card_color"`
	CardStyle string `json:"card_style"`
	Quantity  int    `json:"quantity"`

	// Step 1: shipping details
	ShippingMethod string `json:"shipping_method"`
	ContactName    string `json:"contact_name"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`

	// Terminal state, set on successful submission
	Complete          bool   `json:"complete"`
	CheckoutSessionID string `json:"checkout_session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrderForm creates a fresh wizard at the product-selection step
func NewOrderForm(id, userID string) *OrderForm {
	now := time.Now()
	return &OrderForm{
		ID:             id,
		UserID:         userID,
		Step:           StepProductSelection,
		Quantity:       1,
		ShippingMethod: ShippingStandard,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NextStep advances the wizard after validating the current step's fields.
// At the review step it is a no-op.
func (f *OrderForm) NextStep() error {
	if f.Step >= StepReview {
		return nil
	}
	if err := f.validateStep(f.Step); err != nil {
		return err
	}
	f.Step++
	f.UpdatedAt = time.Now()
	return nil
}

// PrevStep retreats the wizard. At the first step it is a no-op.
func (f *OrderForm) PrevStep() {
	if f.Step <= StepProductSelection {
		return
	}
	f.Step--
	f.UpdatedAt = time.Now()
}

func (f *OrderForm) validateStep(step int) error {
	switch step {
	case StepProductSelection:
		if !ValidCardType(f.CardType) {
			return fmt.Errorf("select a card type")
		}
		if f.Quantity < 1 {
			return fmt.Errorf("quantity must be at least 1")
		}
	case StepShippingDetails:
		if !ValidShippingMethod(f.ShippingMethod) {
			return fmt.Errorf("select a shipping method")
		}
		if f.ContactName == "" {
			return fmt.Errorf("contact name is required")
		}
		if f.AddressLine1 == "" {
			return fmt.Errorf("address is required")
		}
		if f.City == "" {
			return fmt.Errorf("city is required")
		}
		if f.Country == "" {
			return fmt.Errorf("country is required")
		}
	}
	return nil
}

// ValidateForSubmit checks the whole form before handing off to checkout
func (f *OrderForm) ValidateForSubmit() error {
	if f.Complete {
		return fmt.Errorf("order already submitted")
	}
	if f.Step != StepReview {
		return fmt.Errorf("order is not at the review step")
	}
	if err := f.validateStep(StepProductSelection); err != nil {
		return err
	}
	return f.validateStep(StepShippingDetails)
}

// Quote returns the current price breakdown. Meaningful only once a card
// type is chosen.
func (f *OrderForm) Quote() PriceQuote {
	return Quote(f.CardType, f.Quantity, f.ShippingMethod)
}

// MarkComplete records the checkout session and flips the wizard to its
// terminal state
func (f *OrderForm) MarkComplete(sessionID string) {
	f.Complete = true
	f.CheckoutSessionID = sessionID
	f.UpdatedAt = time.Now()
}

// CheckoutRequest converts the completed form into checkout handler input
func (f *OrderForm) CheckoutRequest() CheckoutRequest {
	return CheckoutRequest{
		CardType:  f.CardType,
		CardColor: f.CardColor,
		CardStyle: f.CardStyle,
		Quantity:  f.Quantity,
		UserID:    f.UserID,
	}
}
