// internal/domain/catalog/entity_test.go
package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("100.00")}
	assert.Equal(t, "100.00", p.EffectivePrice().StringFixed(2))

	p.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("75.00"))
	assert.Equal(t, "75.00", p.EffectivePrice().StringFixed(2))
}

func TestDiscountPercentage(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("100.00")}
	assert.Equal(t, 0, p.DiscountPercentage())

	p.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("75.00"))
	assert.Equal(t, 25, p.DiscountPercentage())

	// Discount above list price is ignored.
	p.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("120.00"))
	assert.Equal(t, 0, p.DiscountPercentage())
}

func TestInStock(t *testing.T) {
	p := Product{Stock: 3, Available: true}
	assert.True(t, p.InStock())

	p.Stock = 0
	assert.False(t, p.InStock())

	p.Stock = 3
	p.Available = false
	assert.False(t, p.InStock())
}
