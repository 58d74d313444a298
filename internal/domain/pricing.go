package domain

import "github.com/shopspring/decimal"

// Card types
const (
	CardTypeBasic    = "basic"
	CardTypeEngraved = "engraved"
	CardTypePremium  = "premium"
)

// Shipping methods
const (
	ShippingStandard = "standard"
	ShippingPriority = "priority"
	ShippingExpress  = "express"
)

// Unit prices in whole currency units, used by the storefront wizard
var unitPrices = map[string]decimal.Decimal{
	CardTypeBasic:    decimal.NewFromInt(25),
	CardTypeEngraved: decimal.NewFromInt(35),
	CardTypePremium:  decimal.NewFromInt(50),
}

// Checkout charges in minor currency units (cents)
var unitAmounts = map[string]int64{
	CardTypeBasic:    2500,
	CardTypeEngraved: 2500,
	CardTypePremium:  5000,
}

var shippingPrices = map[string]decimal.Decimal{
	ShippingStandard: decimal.NewFromInt(5),
	ShippingPriority: decimal.NewFromInt(10),
	ShippingExpress:  decimal.NewFromInt(15),
}

var taxRate = decimal.NewFromFloat(0.08)

// ValidCardType reports whether t is a sellable card type
func ValidCardType(t string) bool {
	_, ok := unitAmounts[t]
	return ok
}

// ValidShippingMethod reports whether m is a supported shipping method
func ValidShippingMethod(m string) bool {
	_, ok := shippingPrices[m]
	return ok
}

// UnitAmount returns the checkout charge per card in minor units. The card
// type must already be validated.
func UnitAmount(cardType string) int64 {
	return unitAmounts[cardType]
}

// PriceQuote is the storefront price breakdown shown on the review step
type PriceQuote struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Quote computes the deterministic price breakdown for a card order:
// subtotal = unit x quantity, tax = subtotal x 8% rounded half-up to two
// decimal places, total = subtotal + shipping + tax.
func Quote(cardType string, quantity int, shippingMethod string) PriceQuote {
	unit := unitPrices[cardType]
	shipping := shippingPrices[shippingMethod]

	subtotal := unit.Mul(decimal.NewFromInt(int64(quantity)))
	tax := subtotal.Mul(taxRate).Round(2)

	return PriceQuote{
		UnitPrice: unit,
		Quantity:  quantity,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		Total:     subtotal.Add(shipping).Add(tax),
	}
}
