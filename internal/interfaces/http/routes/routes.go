// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// SetupRoutes wires all services and registers every API route under the
// given group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	catalogService := catalog.NewService(db, cfg)
	cartService := cart.NewService(redisClient, catalogService, cfg)
	orderRepo := order.NewRepository(db)
	userService := user.NewService(db, redisClient, cfg)
	checkoutService := checkout.NewService(cartService, catalogService, orderRepo,
		redisClient, newGateway(cfg), cfg, logger)

	authHandler := handlers.NewAuthHandler(userService, cfg)
	catalogHandler := handlers.NewCatalogHandler(catalogService, cfg)
	cartHandler := handlers.NewCartHandler(cartService, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cfg)
	orderHandler := handlers.NewOrderHandler(orderRepo, cfg)
	adminHandler := handlers.NewAdminHandler(catalogService, orderRepo, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/password-reset", authHandler.RequestPasswordReset)
		auth.POST("/password-reset/confirm", authHandler.ResetPassword)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
		}
	}

	products := rg.Group("/products")
	{
		products.GET("", catalogHandler.ListProducts)
		products.GET("/featured", catalogHandler.GetFeaturedProducts)
		products.GET("/search", catalogHandler.SearchProducts)
		products.GET("/:slug", catalogHandler.GetProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", catalogHandler.ListCategories)
		categories.GET("/:slug", catalogHandler.GetCategory)
	}

	// Cart works for anonymous sessions; auth is optional.
	cartRoutes := rg.Group("/cart")
	cartRoutes.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.DELETE("", cartHandler.ClearCart)
		cartRoutes.GET("/count", cartHandler.GetCartCount)
		cartRoutes.POST("/items", cartHandler.AddToCart)
		cartRoutes.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartRoutes.DELETE("/items/:id", cartHandler.RemoveCartItem)
	}

	checkoutRoutes := rg.Group("/checkout")
	checkoutRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		checkoutRoutes.POST("", checkoutHandler.BeginCheckout)
		checkoutRoutes.GET("/pending", checkoutHandler.GetPendingOrder)
		checkoutRoutes.POST("/:id/payment", checkoutHandler.SubmitPayment)
	}

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware())
	{
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)
		admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
	}
}

// newGateway selects the card processor configured for the deployment
func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.Payment.Provider == "razorpay" {
		return payment.NewRazorpayGateway(cfg)
	}
	return payment.NewStripeGateway(cfg)
}
