// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Typed catalog failures
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// InsufficientStockError is returned when a decrement would drive stock
// negative. Available carries the stock level observed at failure time.
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// Service is the read-mostly catalog gateway. The only write it exposes is
// DecrementStock, called exclusively by the checkout coordinator.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents catalog list query parameters
type ListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=12"`
}

// ListResponse represents a paginated product listing
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ByID retrieves a product by its id
func (s *Service) ByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	result := s.db.WithContext(ctx).Preload("Category").First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}

// BySlug retrieves an available product by its slug
func (s *Service) BySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	result := s.db.WithContext(ctx).Preload("Category").
		Where("slug = ? AND available = ?", slug, true).
		First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}

// List retrieves available products, newest first, paginated
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Where("available = ?", true)
	return s.paginate(query, req)
}

// ByCategorySlug retrieves available products in a category, newest first
func (s *Service) ByCategorySlug(ctx context.Context, slug string, req *ListRequest) (*Category, *ListResponse, error) {
	var category Category
	result := s.db.WithContext(ctx).Where("slug = ?", slug).First(&category)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCategoryNotFound
		}
		return nil, nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Where("category_id = ? AND available = ?", category.ID, true)
	listing, err := s.paginate(query, req)
	if err != nil {
		return nil, nil, err
	}
	return &category, listing, nil
}

// Featured retrieves up to limit featured, available products
func (s *Service) Featured(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	err := s.db.WithContext(ctx).
		Where("featured = ? AND available = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve featured products: %w", err)
	}
	return products, nil
}

// Search finds available products whose name or description contains the
// query, case-insensitively. An empty query yields an empty listing.
func (s *Service) Search(ctx context.Context, text string, req *ListRequest) (*ListResponse, error) {
	if text == "" {
		return &ListResponse{Products: []Product{}, Pagination: Pagination{Page: 1, Limit: req.Limit}}, nil
	}

	pattern := "%" + text + "%"
	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Where("available = ?", true).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Distinct()
	return s.paginate(query, req)
}

// DecrementStock atomically subtracts quantity from a product's stock. The
// guarded UPDATE serializes concurrent decrements at the row and refuses to
// take stock below zero.
func (s *Service) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}

	result := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var product Product
		if err := s.db.WithContext(ctx).Select("id", "stock").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		return &InsufficientStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	return nil
}

// CreateRequest represents admin product creation data
type CreateRequest struct {
	CategoryID      uint                `json:"category_id" binding:"required"`
	Name            string              `json:"name" binding:"required"`
	Slug            string              `json:"slug" binding:"required"`
	Description     string              `json:"description"`
	Price           decimal.Decimal     `json:"price" binding:"required"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price"`
	Image           string              `json:"image"`
	Stock           int                 `json:"stock"`
	Available       bool                `json:"available"`
	Featured        bool                `json:"featured"`
}

// UpdateRequest represents admin product update data; nil fields are unchanged
type UpdateRequest struct {
	Name            *string              `json:"name"`
	Description     *string              `json:"description"`
	Price           *decimal.Decimal     `json:"price"`
	DiscountedPrice *decimal.NullDecimal `json:"discounted_price"`
	Image           *string              `json:"image"`
	Stock           *int                 `json:"stock"`
	Available       *bool                `json:"available"`
	Featured        *bool                `json:"featured"`
}

// Create persists a new product (admin only)
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	if req.DiscountedPrice.Valid && req.DiscountedPrice.Decimal.GreaterThan(req.Price) {
		return nil, fmt.Errorf("discounted price must not exceed list price")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}

	product := Product{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		Price:           req.Price,
		DiscountedPrice: req.DiscountedPrice,
		Image:           req.Image,
		Stock:           req.Stock,
		Available:       req.Available,
		Featured:        req.Featured,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update applies a partial update to a product (admin only)
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Product, error) {
	product, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("price must not be negative")
		}
		updates["price"] = *req.Price
	}
	if req.DiscountedPrice != nil {
		updates["discounted_price"] = *req.DiscountedPrice
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock must not be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	return s.ByID(ctx, id)
}

// Categories lists all categories ordered by name
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// Delete removes a product (admin only)
func (s *Service) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Service) paginate(query *gorm.DB, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 12
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}
