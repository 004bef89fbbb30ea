// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// Typed cart failures
var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownProduct  = errors.New("product not in catalog")
)

// SessionStore is the slice of the session backend the cart needs. The
// Redis client wrapper satisfies it; Get must return redis.Nil for a miss.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ProductReader is the catalog lookup the cart needs for validation and
// for joining the view.
type ProductReader interface {
	ByID(ctx context.Context, id uint) (*catalog.Product, error)
}

// Service handles cart business logic. A cart lives entirely inside its
// session envelope; mutations read the envelope, apply the change, and
// write it back (last writer wins at the session key).
type Service struct {
	sessions SessionStore
	catalog  ProductReader
	config   *config.Config
}

// NewService creates a new cart service
func NewService(sessions SessionStore, catalog ProductReader, cfg *config.Config) *Service {
	return &Service{
		sessions: sessions,
		catalog:  catalog,
		config:   cfg,
	}
}

// Get retrieves the cart for a session, joined against the live catalog
func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	envelope, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, envelope)
}

// Add puts quantity of a product in the cart. If the line already exists
// its quantity is replaced (not summed) and the snapshot price is refreshed
// to the product's current effective price.
func (s *Service) Add(ctx context.Context, sessionID string, productID uint, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.ByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrUnknownProduct
		}
		return nil, err
	}

	if quantity > product.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	envelope, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	replaced := false
	for i := range envelope.Lines {
		if envelope.Lines[i].ProductID == productID {
			envelope.Lines[i].Quantity = quantity
			envelope.Lines[i].UnitPrice = product.EffectivePrice()
			envelope.Lines[i].AddedAt = now
			replaced = true
			break
		}
	}
	if !replaced {
		envelope.Lines = append(envelope.Lines, Line{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.EffectivePrice(),
			AddedAt:   now,
		})
	}

	envelope.UpdatedAt = now
	if err := s.save(ctx, sessionID, envelope); err != nil {
		return nil, err
	}
	return s.join(ctx, envelope)
}

// Update replaces the quantity of an existing line. Zero removes the line,
// negative fails. The snapshot price is kept.
func (s *Service) Update(ctx context.Context, sessionID string, productID uint, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, sessionID, productID)
	}

	product, err := s.catalog.ByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrUnknownProduct
		}
		return nil, err
	}
	if quantity > product.Stock {
		return nil, &catalog.InsufficientStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	envelope, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range envelope.Lines {
		if envelope.Lines[i].ProductID == productID {
			envelope.Lines[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, ErrUnknownProduct
	}

	envelope.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, sessionID, envelope); err != nil {
		return nil, err
	}
	return s.join(ctx, envelope)
}

// Remove drops a line from the cart. Removing an absent line is a no-op.
func (s *Service) Remove(ctx context.Context, sessionID string, productID uint) (*View, error) {
	envelope, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range envelope.Lines {
		if envelope.Lines[i].ProductID == productID {
			envelope.Lines = append(envelope.Lines[:i], envelope.Lines[i+1:]...)
			break
		}
	}

	envelope.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, sessionID, envelope); err != nil {
		return nil, err
	}
	return s.join(ctx, envelope)
}

// Clear removes all lines for the session
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.Del(ctx, s.key(sessionID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Count returns the total quantity across all lines
func (s *Service) Count(ctx context.Context, sessionID string) (int, error) {
	envelope, err := s.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, line := range envelope.Lines {
		total += line.Quantity
	}
	return total, nil
}

// Private helpers

func (s *Service) key(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", s.config.Session.CartKey, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID string) (*Envelope, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required")
	}

	data, err := s.sessions.Get(ctx, s.key(sessionID))
	if errors.Is(err, redis.Nil) {
		now := time.Now().UTC()
		return &Envelope{
			SessionID: sessionID,
			Lines:     []Line{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(data), &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &envelope, nil
}

func (s *Service) save(ctx context.Context, sessionID string, envelope *Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.sessions.Set(ctx, s.key(sessionID), data, s.config.Session.CookieAge); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// join materializes the view: fresh product rows from the catalog, snapshot
// prices from the envelope. Lines whose product vanished from the catalog
// are kept with a nil product so checkout can surface them as stale.
func (s *Service) join(ctx context.Context, envelope *Envelope) (*View, error) {
	view := &View{
		SessionID:  envelope.SessionID,
		Lines:      make([]ViewLine, 0, len(envelope.Lines)),
		TotalPrice: decimal.Zero,
		UpdatedAt:  envelope.UpdatedAt,
	}

	for _, line := range envelope.Lines {
		product, err := s.catalog.ByID(ctx, line.ProductID)
		if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
			return nil, err
		}

		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Lines = append(view.Lines, ViewLine{
			ProductID: line.ProductID,
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
		})
		view.TotalQuantity += line.Quantity
		view.TotalPrice = view.TotalPrice.Add(lineTotal)
	}

	return view, nil
}
