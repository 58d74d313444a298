package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuoteBreakdown(t *testing.T) {
	tests := []struct {
		name     string
		cardType string
		quantity int
		shipping string
		subtotal string
		tax      string
		total    string
	}{
		{"basic single standard", CardTypeBasic, 1, ShippingStandard, "25", "2", "32"},
		{"engraved single priority", CardTypeEngraved, 1, ShippingPriority, "35", "2.8", "47.8"},
		{"premium single express", CardTypePremium, 1, ShippingExpress, "50", "4", "69"},
		{"premium pair standard", CardTypePremium, 2, ShippingStandard, "100", "8", "113"},
		{"basic three express", CardTypeBasic, 3, ShippingExpress, "75", "6", "96"},
		{"engraved seven standard", CardTypeEngraved, 7, ShippingStandard, "245", "19.6", "269.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Quote(tt.cardType, tt.quantity, tt.shipping)

			assert.Equal(t, tt.quantity, q.Quantity)
			assert.True(t, q.Subtotal.Equal(q.UnitPrice.Mul(decimal.NewFromInt(int64(tt.quantity)))),
				"subtotal must be unit price times quantity")
			assert.True(t, q.Subtotal.Equal(decimal.RequireFromString(tt.subtotal)),
				"subtotal %s, want %s", q.Subtotal, tt.subtotal)
			assert.True(t, q.Tax.Equal(decimal.RequireFromString(tt.tax)),
				"tax %s, want %s", q.Tax, tt.tax)
			assert.True(t, q.Total.Equal(decimal.RequireFromString(tt.total)),
				"total %s, want %s", q.Total, tt.total)
			assert.True(t, q.Total.Equal(q.Subtotal.Add(q.Shipping).Add(q.Tax)))
		})
	}
}

func TestQuoteTaxRoundsHalfUp(t *testing.T) {
	// engraved x 1: 35 * 0.08 = 2.80, kept at two decimal places
	q := Quote(CardTypeEngraved, 1, ShippingStandard)
	assert.True(t, q.Tax.Equal(decimal.RequireFromString("2.80")), "tax %s", q.Tax)
	assert.True(t, q.Tax.Exponent() >= -2, "tax keeps at most two decimal places")
}

func TestValidCardType(t *testing.T) {
	assert.True(t, ValidCardType(CardTypeBasic))
	assert.True(t, ValidCardType(CardTypeEngraved))
	assert.True(t, ValidCardType(CardTypePremium))
	assert.False(t, ValidCardType("platinum"))
	assert.False(t, ValidCardType(""))
}

func TestUnitAmountMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2500), UnitAmount(CardTypeBasic))
	assert.Equal(t, int64(2500), UnitAmount(CardTypeEngraved))
	assert.Equal(t, int64(5000), UnitAmount(CardTypePremium))
}
