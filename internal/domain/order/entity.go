// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus is the payment state of an order, tracked separately from
// fulfillment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ShippingAddress is embedded in the order row; orders keep their own copy
// of the address so later profile edits never rewrite history.
type ShippingAddress struct {
	FirstName  string `gorm:"column:first_name;not null;size:100" json:"first_name"`
	LastName   string `gorm:"column:last_name;not null;size:100" json:"last_name"`
	Email      string `gorm:"column:email;not null;size:254" json:"email"`
	Phone      string `gorm:"column:phone;size:30" json:"phone"`
	Address    string `gorm:"column:address;not null;size:250" json:"address"`
	City       string `gorm:"column:city;not null;size:100" json:"city"`
	State      string `gorm:"column:state;not null;size:100" json:"state"`
	PostalCode string `gorm:"column:postal_code;not null;size:20" json:"postal_code"`
	Country    string `gorm:"column:country;not null;size:100" json:"country"`
}

// Order is a priced, immutable snapshot of a cart at checkout time.
// TotalAmount is fixed at creation; payment succeeding or failing never
// reprices it.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Shipping      ShippingAddress `gorm:"embedded" json:"shipping"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Currency      string          `gorm:"not null;size:3;default:'USD'" json:"currency"`
	Status        Status          `gorm:"not null;default:'pending';size:20" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"not null;default:'pending';size:20" json:"payment_status"`
	PaymentRef    *string         `gorm:"column:payment_id;size:250" json:"payment_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem is one priced line of an order. Price is the unit price captured
// from the cart snapshot, not the live catalog.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// statusTransitions encodes the legal fulfillment moves
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether moving from s to target is legal
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// RequiresCompletedPayment reports whether entering s demands a captured
// payment. Fulfillment never starts on an unpaid order.
func (s Status) RequiresCompletedPayment() bool {
	return s == StatusProcessing
}

// IsPaid reports whether payment has completed for the order
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentCompleted
}

// LineTotal returns price times quantity for the item
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalFromItems sums the line totals; the repository checks it against
// the stored TotalAmount at creation.
func TotalFromItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
