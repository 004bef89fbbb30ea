// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category organizes products for browsing
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:200" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:200" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"size:500" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Product is the catalog entity the storefront sells. Prices are
// numeric(10,2); stock is the single shared inventory counter and is only
// ever decremented through Service.DecrementStock.
type Product struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	CategoryID      uint                `gorm:"not null;index" json:"category_id"`
	Name            string              `gorm:"not null;size:200" json:"name"`
	Slug            string              `gorm:"uniqueIndex;not null;size:200" json:"slug"`
	Description     string              `gorm:"type:text" json:"description"`
	Price           decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	DiscountedPrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"discounted_price"`
	Image           string              `gorm:"size:500" json:"image"`
	Stock           int                 `gorm:"not null;default:0" json:"stock"`
	Available       bool                `gorm:"not null;default:true" json:"available"`
	Featured        bool                `gorm:"not null;default:false" json:"featured"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
}

// TableName overrides
func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }

// EffectivePrice returns the discounted price if set, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

// DiscountPercentage returns the rounded discount as a whole percentage,
// or 0 when no discount applies.
func (p *Product) DiscountPercentage() int {
	if !p.DiscountedPrice.Valid || p.Price.IsZero() {
		return 0
	}
	if p.DiscountedPrice.Decimal.GreaterThanOrEqual(p.Price) {
		return 0
	}
	discount := p.Price.Sub(p.DiscountedPrice.Decimal).
		Div(p.Price).
		Mul(decimal.NewFromInt(100))
	return int(discount.Round(0).IntPart())
}

// InStock reports whether the product can currently be purchased
func (p *Product) InStock() bool {
	return p.Stock > 0 && p.Available
}
