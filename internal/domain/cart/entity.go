// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// Line is one (product, quantity, snapshot price) entry of the cart.
// UnitPrice is the effective price captured when the line was last added or
// re-added; it is deliberately NOT refreshed at checkout.
type Line struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// Envelope is the serialized form of a session cart as stored in the
// session store. One envelope per session; last writer wins.
type Envelope struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewLine is a cart line joined against the live catalog: the product
// fields reflect the catalog now, the price reflects the cart snapshot.
type ViewLine struct {
	ProductID uint             `json:"product_id"`
	Product   *catalog.Product `json:"product"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

// View is the joined, totalled cart handed to callers
type View struct {
	SessionID     string          `json:"session_id"`
	Lines         []ViewLine      `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsEmpty reports whether the view holds no lines
func (v *View) IsEmpty() bool {
	return len(v.Lines) == 0
}
