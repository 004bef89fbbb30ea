// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

type stubCarts struct {
	views   map[string]*cart.View
	cleared []string
}

func (s *stubCarts) Get(_ context.Context, sessionID string) (*cart.View, error) {
	if v, ok := s.views[sessionID]; ok {
		return v, nil
	}
	return &cart.View{SessionID: sessionID, TotalPrice: decimal.Zero}, nil
}

func (s *stubCarts) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	delete(s.views, sessionID)
	return nil
}

type decrementCall struct {
	productID uint
	quantity  int
}

type stubCatalog struct {
	products      map[uint]*catalog.Product
	decrements    []decrementCall
	decrementFail error
}

func (s *stubCatalog) ByID(_ context.Context, id uint) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *stubCatalog) DecrementStock(_ context.Context, id uint, quantity int) error {
	if s.decrementFail != nil {
		return s.decrementFail
	}
	s.decrements = append(s.decrements, decrementCall{productID: id, quantity: quantity})
	return nil
}

type stubOrders struct {
	nextID uint
	orders map[uint]*order.Order
}

func newStubOrders() *stubOrders {
	return &stubOrders{nextID: 1, orders: make(map[uint]*order.Order)}
}

func (s *stubOrders) Create(_ context.Context, userID uint, shipping order.ShippingAddress, lines []order.LineInput) (*order.Order, error) {
	items := make([]order.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, order.OrderItem{
			ProductID: line.ProductID,
			Price:     line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	o := &order.Order{
		ID:            s.nextID,
		UserID:        userID,
		Shipping:      shipping,
		TotalAmount:   order.TotalFromItems(items),
		Currency:      "USD",
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
		Items:         items,
	}
	s.orders[o.ID] = o
	s.nextID++
	return o, nil
}

func (s *stubOrders) MarkPaid(_ context.Context, orderID uint, ref string) error {
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		return order.ErrIllegalTransition
	}
	o.Status = order.StatusProcessing
	o.PaymentStatus = order.PaymentCompleted
	o.PaymentRef = &ref
	return nil
}

func (s *stubOrders) MarkPaymentFailed(_ context.Context, orderID uint) error {
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.PaymentStatus == order.PaymentCompleted || o.PaymentStatus == order.PaymentRefunded {
		return order.ErrIllegalTransition
	}
	o.PaymentStatus = order.PaymentFailed
	return nil
}

func (s *stubOrders) Load(_ context.Context, userID, orderID uint) (*order.Order, error) {
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

type stubSessions struct {
	data map[string]string
}

func (s *stubSessions) Get(_ context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *stubSessions) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.data[key] = value.(string)
	return nil
}

func (s *stubSessions) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

type stubGateway struct {
	err      error
	ref      string
	requests []payment.ChargeRequest
}

func (s *stubGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &payment.Charge{ProcessorRef: s.ref}, nil
}

type fixture struct {
	svc      *Service
	carts    *stubCarts
	catalog  *stubCatalog
	orders   *stubOrders
	sessions *stubSessions
	gateway  *stubGateway
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		carts:    &stubCarts{views: make(map[string]*cart.View)},
		catalog:  &stubCatalog{products: make(map[uint]*catalog.Product)},
		orders:   newStubOrders(),
		sessions: &stubSessions{data: make(map[string]string)},
		gateway:  &stubGateway{ref: "ch_test_1"},
	}
	cfg := &config.Config{
		Session: config.SessionConfig{CartKey: "cart", CookieAge: 24 * time.Hour},
	}
	f.svc = NewService(f.carts, f.catalog, f.orders, f.sessions, f.gateway, cfg, logger)
	return f
}

func (f *fixture) addProduct(id uint, price string, stock int) *catalog.Product {
	p := &catalog.Product{
		ID:        id,
		Name:      "Widget",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
	}
	f.catalog.products[id] = p
	return p
}

func (f *fixture) fillCart(sessionID string, lines ...cart.ViewLine) {
	view := &cart.View{SessionID: sessionID, TotalPrice: decimal.Zero}
	for _, line := range lines {
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Lines = append(view.Lines, line)
		view.TotalQuantity += line.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.LineTotal)
	}
	f.carts.views[sessionID] = view
}

func validForm() ShippingForm {
	return ShippingForm{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+442079460000",
		Address:    "12 Analytical Row",
		City:       "London",
		State:      "Greater London",
		PostalCode: "NW1 1AA",
		Country:    "GB",
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "51.98", o.TotalAmount.StringFixed(2))

	pendingID, ok, err := f.svc.PendingOrderID(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, o.ID, pendingID)

	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, order.StatusProcessing, result.Order.Status)
	assert.Equal(t, order.PaymentCompleted, result.Order.PaymentStatus)
	require.NotNil(t, result.Order.PaymentRef)
	assert.Equal(t, "ch_test_1", *result.Order.PaymentRef)

	// Charge request carries the minor unit amount and a per-order description.
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, int64(5198), f.gateway.requests[0].AmountMinor)
	assert.Equal(t, "usd", f.gateway.requests[0].Currency)
	assert.Equal(t, "Order #1", f.gateway.requests[0].Description)

	// Side effects ran: stock decremented, cart cleared, stash removed.
	require.Len(t, f.catalog.decrements, 1)
	assert.Equal(t, decrementCall{productID: 1, quantity: 2}, f.catalog.decrements[0])
	assert.Contains(t, f.carts.cleared, "sess-1")
	_, ok, err = f.svc.PendingOrderID(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBeginCheckoutEmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.BeginCheckout(context.Background(), 7, "sess-1", validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBeginCheckoutStaleStock(t *testing.T) {
	f := newFixture()
	p := f.addProduct(1, "25.99", 1)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Product:   p,
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("25.99"),
	})

	_, err := f.svc.BeginCheckout(context.Background(), 7, "sess-1", validForm())

	var stale *StaleCartError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, uint(1), stale.ProductID)
	assert.Empty(t, f.orders.orders, "no order may be created from a stale cart")
}

func TestBeginCheckoutVanishedProduct(t *testing.T) {
	f := newFixture()
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 9,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("5.00"),
	})

	_, err := f.svc.BeginCheckout(context.Background(), 7, "sess-1", validForm())

	var stale *StaleCartError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, uint(9), stale.ProductID)
}

func TestBeginCheckoutUnavailableProduct(t *testing.T) {
	f := newFixture()
	p := f.addProduct(1, "25.99", 10)
	p.Available = false
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Product:   p,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})

	_, err := f.svc.BeginCheckout(context.Background(), 7, "sess-1", validForm())

	var stale *StaleCartError
	assert.ErrorAs(t, err, &stale)
}

func TestOrderKeepsCartSnapshotPrice(t *testing.T) {
	f := newFixture()
	p := f.addProduct(1, "30.00", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	// The catalog price moved after the line was added; the order keeps the
	// snapshot.
	p.Price = decimal.RequireFromString("30.00")

	o, err := f.svc.BeginCheckout(context.Background(), 7, "sess-1", validForm())
	require.NoError(t, err)
	assert.Equal(t, "25.99", o.TotalAmount.StringFixed(2))
}

func TestSubmitPaymentDeclined(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	f.gateway.err = &payment.DeclinedError{UserMessage: "Your card was declined."}
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_bad")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.Equal(t, "Your card was declined.", result.Message)
	assert.Equal(t, order.PaymentFailed, result.Order.PaymentStatus)

	// No paid side effects ran; the cart survives so the customer can start
	// a fresh checkout.
	assert.Empty(t, f.catalog.decrements)
	assert.Empty(t, f.carts.cleared)
	assert.Contains(t, f.carts.views, "sess-1")
}

func TestSubmitPaymentDeclinedOrderIsTerminal(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	f.gateway.err = &payment.DeclinedError{UserMessage: "Your card was declined."}
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)
	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_bad")
	require.NoError(t, err)
	require.Equal(t, OutcomeDeclined, result.Outcome)

	// Retrying the failed order must be rejected before the gateway is
	// called; otherwise the card is charged for an order that can never be
	// marked paid.
	f.gateway.err = nil
	_, err = f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Len(t, f.gateway.requests, 1)
	assert.Equal(t, order.PaymentFailed, f.orders.orders[o.ID].PaymentStatus)
}

func TestSubmitPaymentTransientKeepsOrderPending(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	f.gateway.err = &payment.TransientError{Reason: "processor timeout"}
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransient, result.Outcome)

	// The order is untouched, so a retry can succeed against the same order.
	stored := f.orders.orders[o.ID]
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)

	f.gateway.err = nil
	retry, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, retry.Outcome)
}

func TestSubmitPaymentConfigurationError(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	f.gateway.err = &payment.ConfigurationError{Reason: "bad api key"}
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfigError, result.Outcome)

	// A broken gateway cannot recover on retry, so the order fails like a
	// decline.
	assert.Equal(t, order.PaymentFailed, f.orders.orders[o.ID].PaymentStatus)
	assert.Equal(t, order.PaymentFailed, result.Order.PaymentStatus)
}

func TestSubmitPaymentWithoutPendingOrder(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitPayment(context.Background(), 7, "sess-1", 1, "tok_visa")
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestSubmitPaymentOrderIDMismatch(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	_, err = f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID+100, "tok_visa")
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestSubmitPaymentAlreadyPaid(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)
	_, err = f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)

	// The stash is gone after success, so a replay cannot double charge.
	_, err = f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Len(t, f.gateway.requests, 1)
}

func TestSubmitPaymentWrongUser(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	// Another principal cannot see the order at all.
	_, err = f.svc.SubmitPayment(ctx, 99, "sess-1", o.ID, "tok_visa")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Empty(t, f.gateway.requests)
}

func TestDecrementFailureDoesNotUnwindPayment(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	f.catalog.decrementFail = errors.New("connection reset")
	ctx := context.Background()

	o, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)

	result, err := f.svc.SubmitPayment(ctx, 7, "sess-1", o.ID, "tok_visa")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, result.Outcome)
	assert.Equal(t, order.PaymentCompleted, f.orders.orders[o.ID].PaymentStatus)
	assert.Contains(t, f.carts.cleared, "sess-1")
}

func TestBeginCheckoutReplacesStash(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "25.99", 10)
	f.fillCart("sess-1", cart.ViewLine{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("25.99"),
	})
	ctx := context.Background()

	first, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)
	second, err := f.svc.BeginCheckout(ctx, 7, "sess-1", validForm())
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	pendingID, ok, err := f.svc.PendingOrderID(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, pendingID)

	_, err = f.svc.SubmitPayment(ctx, 7, "sess-1", first.ID, "tok_visa")
	assert.ErrorIs(t, err, ErrIllegalState)
}
