// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Typed order failures
var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal order state transition")
	ErrConsistency       = errors.New("order total does not match its lines")
)

// ValidationError reports a missing or malformed field on order creation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// LineInput is one cart line handed to Create. UnitPrice is the cart
// snapshot price, carried into the order verbatim.
type LineInput struct {
	ProductID uint
	UnitPrice decimal.Decimal
	Quantity  int
}

// Repository persists orders. Paid and failed transitions are single guarded
// UPDATEs so the legal state machine is enforced at the row, not in Go.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new order repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending order with its lines in one transaction. The
// stored total must equal the sum of the lines.
func (r *Repository) Create(ctx context.Context, userID uint, shipping ShippingAddress, lines []LineInput) (*Order, error) {
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "items", Message: "order must have at least one line"}
	}

	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Message: "line quantity must be positive"}
		}
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Price:     line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	total := TotalFromItems(items)
	if !total.IsPositive() {
		return nil, ErrConsistency
	}

	o := &Order{
		UserID:        userID,
		Shipping:      shipping,
		TotalAmount:   total,
		Currency:      "USD",
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Items:         items,
	}

	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

// MarkPaid records a successful charge: pending/pending becomes
// processing/completed and the processor reference is stored. The WHERE
// clause encodes the precondition; zero rows means the order is missing or
// already past pending.
func (r *Repository) MarkPaid(ctx context.Context, orderID uint, processorRef string) error {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			orderID, StatusPending, PaymentPending).
		Updates(map[string]interface{}{
			"status":         StatusProcessing,
			"payment_status": PaymentCompleted,
			"payment_id":     processorRef,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark order paid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardMiss(ctx, orderID)
	}
	return nil
}

// MarkPaymentFailed records a failed charge attempt. Repeating it on an
// already-failed order is a no-op; orders whose payment completed or was
// refunded cannot move to failed.
func (r *Repository) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status IN ?",
			orderID, []PaymentStatus{PaymentPending, PaymentFailed}).
		Update("payment_status", PaymentFailed)
	if result.Error != nil {
		return fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardMiss(ctx, orderID)
	}
	return nil
}

// Load fetches an order with its lines, scoped to its owner
func (r *Repository) Load(ctx context.Context, userID, orderID uint) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &o, nil
}

// ListFor returns a user's orders, newest first
func (r *Repository) ListFor(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order through the fulfillment state machine. Used
// by admin operations; the guard rides in the WHERE clause like MarkPaid.
func (r *Repository) UpdateStatus(ctx context.Context, orderID uint, target Status) error {
	froms := legalSources(target)
	if len(froms) == 0 {
		return ErrIllegalTransition
	}

	q := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status IN ?", orderID, froms)
	if target.RequiresCompletedPayment() {
		q = q.Where("payment_status = ?", PaymentCompleted)
	}
	result := q.Update("status", target)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.classifyGuardMiss(ctx, orderID)
	}
	return nil
}

// classifyGuardMiss distinguishes "no such order" from "order exists but
// the guard rejected the move".
func (r *Repository) classifyGuardMiss(ctx context.Context, orderID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", orderID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrIllegalTransition
}

func legalSources(target Status) []Status {
	var froms []Status
	for from, targets := range statusTransitions {
		for _, t := range targets {
			if t == target {
				froms = append(froms, from)
			}
		}
	}
	return froms
}

var requiredShippingFields = []struct {
	name  string
	value func(ShippingAddress) string
}{
	{"first_name", func(a ShippingAddress) string { return a.FirstName }},
	{"last_name", func(a ShippingAddress) string { return a.LastName }},
	{"email", func(a ShippingAddress) string { return a.Email }},
	{"phone", func(a ShippingAddress) string { return a.Phone }},
	{"address", func(a ShippingAddress) string { return a.Address }},
	{"city", func(a ShippingAddress) string { return a.City }},
	{"state", func(a ShippingAddress) string { return a.State }},
	{"postal_code", func(a ShippingAddress) string { return a.PostalCode }},
	{"country", func(a ShippingAddress) string { return a.Country }},
}

func validateShipping(a ShippingAddress) error {
	for _, f := range requiredShippingFields {
		if strings.TrimSpace(f.value(a)) == "" {
			return &ValidationError{Field: f.name, Message: "required"}
		}
	}
	if !strings.Contains(a.Email, "@") {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	return nil
}
