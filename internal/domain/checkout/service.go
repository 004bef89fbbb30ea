// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	goredis "github.com/redis/go-redis/v9"
)

// Typed checkout failures
var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrIllegalState = errors.New("no pending order for this session")
)

// StaleCartError means a cart line no longer survives revalidation against
// the live catalog. The cart is left intact so the customer can fix it.
type StaleCartError struct {
	ProductID uint
	Name      string
	Reason    string
}

func (e *StaleCartError) Error() string {
	return fmt.Sprintf("cart line for %q is stale: %s", e.Name, e.Reason)
}

// CartStore is the slice of the cart service checkout needs
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*cart.View, error)
	Clear(ctx context.Context, sessionID string) error
}

// Catalog is the slice of the catalog service checkout needs
type Catalog interface {
	ByID(ctx context.Context, id uint) (*catalog.Product, error)
	DecrementStock(ctx context.Context, id uint, quantity int) error
}

// OrderStore is the slice of the order repository checkout needs
type OrderStore interface {
	Create(ctx context.Context, userID uint, shipping order.ShippingAddress, lines []order.LineInput) (*order.Order, error)
	MarkPaid(ctx context.Context, orderID uint, processorRef string) error
	MarkPaymentFailed(ctx context.Context, orderID uint) error
	Load(ctx context.Context, userID, orderID uint) (*order.Order, error)
}

// SessionStore stashes the pending order id between the two phases
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ShippingForm is the customer's checkout form
type ShippingForm struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// Outcome is how a payment attempt ended
type Outcome string

const (
	OutcomePaid        Outcome = "paid"
	OutcomeDeclined    Outcome = "declined"
	OutcomeTransient   Outcome = "retry"
	OutcomeConfigError Outcome = "unavailable"
)

// Result is the outcome of a payment submission. Declined, transient and
// configuration failures are results, not errors; the order survives them.
type Result struct {
	Outcome Outcome
	Order   *order.Order
	Message string
}

// Service coordinates the two checkout phases. Phase one freezes the cart
// into a pending order; phase two charges it and runs the paid side effects
// in a fixed sequence.
type Service struct {
	carts    CartStore
	catalog  Catalog
	orders   OrderStore
	sessions SessionStore
	gateway  payment.Gateway
	config   *config.Config
	logger   *logrus.Logger
}

// NewService creates a new checkout service
func NewService(carts CartStore, catalog Catalog, orders OrderStore, sessions SessionStore, gateway payment.Gateway, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		sessions: sessions,
		gateway:  gateway,
		config:   cfg,
		logger:   logger,
	}
}

// BeginCheckout freezes the session cart into a pending order. The cart is
// revalidated line by line against the live catalog first; the order prices
// come from the cart snapshot, not the catalog. The cart itself is left
// untouched until payment succeeds. Starting over replaces any previously
// stashed pending order.
func (s *Service) BeginCheckout(ctx context.Context, userID uint, sessionID string, form ShippingForm) (*order.Order, error) {
	view, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines := make([]order.LineInput, 0, len(view.Lines))
	for _, line := range view.Lines {
		product, err := s.catalog.ByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, &StaleCartError{
					ProductID: line.ProductID,
					Name:      staleName(line),
					Reason:    "product no longer exists",
				}
			}
			return nil, err
		}
		if !product.Available {
			return nil, &StaleCartError{
				ProductID: line.ProductID,
				Name:      product.Name,
				Reason:    "product is no longer available",
			}
		}
		if line.Quantity > product.Stock {
			return nil, &StaleCartError{
				ProductID: line.ProductID,
				Name:      product.Name,
				Reason:    fmt.Sprintf("only %d left in stock", product.Stock),
			}
		}
		lines = append(lines, order.LineInput{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	o, err := s.orders.Create(ctx, userID, order.ShippingAddress{
		FirstName:  strings.TrimSpace(form.FirstName),
		LastName:   strings.TrimSpace(form.LastName),
		Email:      strings.TrimSpace(form.Email),
		Phone:      strings.TrimSpace(form.Phone),
		Address:    strings.TrimSpace(form.Address),
		City:       strings.TrimSpace(form.City),
		State:      strings.TrimSpace(form.State),
		PostalCode: strings.TrimSpace(form.PostalCode),
		Country:    strings.TrimSpace(form.Country),
	}, lines)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Set(ctx, s.stashKey(sessionID),
		strconv.FormatUint(uint64(o.ID), 10), s.config.Session.CookieAge); err != nil {
		return nil, fmt.Errorf("failed to stash pending order: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"user_id":  userID,
		"total":    o.TotalAmount.StringFixed(2),
		"lines":    len(o.Items),
	}).Info("Checkout started")

	return o, nil
}

// SubmitPayment charges the pending order stashed for the session. On
// success the order is marked paid, stock is decremented, and the cart and
// stash are cleared, in that sequence. A decrement that fails after the
// charge is logged for reconciliation and never unwinds the payment.
func (s *Service) SubmitPayment(ctx context.Context, userID uint, sessionID string, orderID uint, token string) (*Result, error) {
	stashedID, ok, err := s.PendingOrderID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok || stashedID != orderID {
		return nil, ErrIllegalState
	}

	o, err := s.orders.Load(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	// Declined and cancelled orders are terminal for payment; retrying
	// would charge the card for an order that can never be marked paid.
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		return nil, ErrIllegalState
	}

	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		AmountMinor: minorUnits(o.TotalAmount),
		Currency:    strings.ToLower(o.Currency),
		Token:       token,
		Description: fmt.Sprintf("Order #%d", o.ID),
	})
	if err != nil {
		return s.handleChargeFailure(ctx, o, err)
	}

	if err := s.orders.MarkPaid(ctx, o.ID, charge.ProcessorRef); err != nil {
		// The charge went through but we could not record it. Surface the
		// error; the processor reference is in the log for reconciliation.
		s.logger.WithFields(logrus.Fields{
			"order_id":      o.ID,
			"processor_ref": charge.ProcessorRef,
			"error":         err.Error(),
		}).Error("Charge succeeded but order could not be marked paid")
		return nil, err
	}
	o.Status = order.StatusProcessing
	o.PaymentStatus = order.PaymentCompleted
	o.PaymentRef = &charge.ProcessorRef

	for _, item := range o.Items {
		if err := s.catalog.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
				"error":      err.Error(),
			}).Error("Stock decrement failed for paid order, needs reconciliation")
		}
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id":   o.ID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to clear cart after payment")
	}
	if err := s.sessions.Del(ctx, s.stashKey(sessionID)); err != nil {
		s.logger.WithField("session_id", sessionID).
			Warn("Failed to clear pending order stash")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"processor_ref": charge.ProcessorRef,
		"amount":        o.TotalAmount.StringFixed(2),
	}).Info("Order paid")

	return &Result{Outcome: OutcomePaid, Order: o}, nil
}

// PendingOrderID returns the order stashed for the session, if any
func (s *Service) PendingOrderID(ctx context.Context, sessionID string) (uint, bool, error) {
	raw, err := s.sessions.Get(ctx, s.stashKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("failed to read pending order stash: %w", err)
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt pending order stash: %w", err)
	}
	return uint(id), true, nil
}

func (s *Service) handleChargeFailure(ctx context.Context, o *order.Order, chargeErr error) (*Result, error) {
	var declined *payment.DeclinedError
	if errors.As(chargeErr, &declined) {
		if err := s.orders.MarkPaymentFailed(ctx, o.ID); err != nil {
			return nil, err
		}
		o.PaymentStatus = order.PaymentFailed
		s.logger.WithFields(logrus.Fields{
			"order_id": o.ID,
			"message":  declined.UserMessage,
		}).Info("Payment declined")
		return &Result{Outcome: OutcomeDeclined, Order: o, Message: declined.UserMessage}, nil
	}

	// Transient failures leave the order pending so the customer can retry
	// with the same order.
	var transient *payment.TransientError
	if errors.As(chargeErr, &transient) {
		s.logger.WithFields(logrus.Fields{
			"order_id": o.ID,
			"reason":   transient.Reason,
		}).Warn("Payment processor unavailable")
		return &Result{
			Outcome: OutcomeTransient,
			Order:   o,
			Message: "payment could not be processed, please try again",
		}, nil
	}

	// A misconfigured gateway cannot succeed on retry, so the order is
	// closed out like a decline.
	var cfgErr *payment.ConfigurationError
	if errors.As(chargeErr, &cfgErr) {
		if err := s.orders.MarkPaymentFailed(ctx, o.ID); err != nil {
			return nil, err
		}
		o.PaymentStatus = order.PaymentFailed
		s.logger.WithFields(logrus.Fields{
			"order_id": o.ID,
			"reason":   cfgErr.Reason,
		}).Error("Payment gateway misconfigured")
		return &Result{
			Outcome: OutcomeConfigError,
			Order:   o,
			Message: "payment is temporarily unavailable",
		}, nil
	}

	return nil, chargeErr
}

func (s *Service) stashKey(sessionID string) string {
	return fmt.Sprintf("checkout:order:%s", sessionID)
}

// minorUnits converts a decimal amount to the currency's minor unit,
// rounding half up at the second decimal place.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func staleName(line cart.ViewLine) string {
	if line.Product != nil {
		return line.Product.Name
	}
	return fmt.Sprintf("product %d", line.ProductID)
}
