// internal/domain/order/entity_test.go
package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestRequiresCompletedPayment(t *testing.T) {
	assert.True(t, StatusProcessing.RequiresCompletedPayment())
	assert.False(t, StatusCancelled.RequiresCompletedPayment())
	assert.False(t, StatusShipped.RequiresCompletedPayment())
	assert.False(t, StatusDelivered.RequiresCompletedPayment())
}

func TestTotalFromItems(t *testing.T) {
	items := []OrderItem{
		{ProductID: 1, Price: decimal.RequireFromString("19.99"), Quantity: 2},
		{ProductID: 2, Price: decimal.RequireFromString("5.50"), Quantity: 3},
	}

	assert.Equal(t, "56.48", TotalFromItems(items).StringFixed(2))
	assert.True(t, TotalFromItems(nil).IsZero())
}

func TestLineTotal(t *testing.T) {
	item := OrderItem{Price: decimal.RequireFromString("0.10"), Quantity: 3}
	assert.Equal(t, "0.30", item.LineTotal().StringFixed(2))
}

func TestIsPaid(t *testing.T) {
	o := &Order{PaymentStatus: PaymentPending}
	assert.False(t, o.IsPaid())

	o.PaymentStatus = PaymentCompleted
	assert.True(t, o.IsPaid())

	o.PaymentStatus = PaymentFailed
	assert.False(t, o.IsPaid())
}
