// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	// Dependency order: referenced tables first.
	models := []interface{}{
		&user.User{},
		&catalog.Category{},
		&catalog.Product{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes beyond what the model tags declare
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		"CREATE INDEX IF NOT EXISTS idx_products_category_available ON products(category_id, available)",
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(featured, available)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",

		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
		}
	}
	return nil
}

// SeedInitialData inserts development fixtures: categories, an admin user,
// and a handful of products. Everything is idempotent.
func (m *Migration) SeedInitialData() error {
	m.logger.Info("Seeding initial data")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}

func (m *Migration) seedCategories() error {
	categories := []catalog.Category{
		{
			Name:        "Electronics",
			Slug:        "electronics",
			Description: "Electronic devices, gadgets, and accessories",
		},
		{
			Name:        "Clothing",
			Slug:        "clothing",
			Description: "Fashion, apparel, and accessories",
		},
		{
			Name:        "Books",
			Slug:        "books",
			Description: "Books, eBooks, and educational materials",
		},
	}

	for _, category := range categories {
		var existing catalog.Category
		err := m.db.Where("slug = ?", category.Slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := m.db.Create(&category).Error; err != nil {
				return err
			}
			m.logger.WithField("category", category.Name).Info("Created category")
		} else if err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedAdminUser() error {
	var existing user.User
	err := m.db.Where("email = ?", "admin@example.com").First(&existing).Error
	if err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := user.User{
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FirstName:    "Admin",
		LastName:     "User",
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	m.logger.Info("Created admin user")
	return nil
}

func (m *Migration) seedProducts() error {
	var electronics catalog.Category
	err := m.db.Where("slug = ?", "electronics").First(&electronics).Error
	if err != nil {
		return err
	}

	products := []catalog.Product{
		{
			CategoryID:  electronics.ID,
			Name:        "Wireless Headphones",
			Slug:        "wireless-headphones",
			Description: "Over-ear wireless headphones with noise cancellation",
			Price:       decimal.RequireFromString("129.99"),
			Stock:       50,
			Available:   true,
			Featured:    true,
		},
		{
			CategoryID:  electronics.ID,
			Name:        "Mechanical Keyboard",
			Slug:        "mechanical-keyboard",
			Description: "Tenkeyless mechanical keyboard with hot-swappable switches",
			Price:       decimal.RequireFromString("89.50"),
			Stock:       30,
			Available:   true,
		},
		{
			CategoryID:  electronics.ID,
			Name:        "USB-C Hub",
			Slug:        "usb-c-hub",
			Description: "7-in-1 USB-C hub with HDMI and card reader",
			Price:       decimal.RequireFromString("45.00"),
			Stock:       100,
			Available:   true,
		},
	}

	for _, p := range products {
		var existing catalog.Product
		err := m.db.Where("slug = ?", p.Slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := m.db.Create(&p).Error; err != nil {
				return err
			}
			m.logger.WithField("product", p.Name).Info("Created product")
		} else if err != nil {
			return err
		}
	}
	return nil
}
