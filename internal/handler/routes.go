package handler

import (
	"net/http"

	_ "github.com/dafibh/budget-tracker/budget-backend/docs"
	"github.com/dafibh/budget-tracker/budget-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, transactionHandler *TransactionHandler, categoryHandler *CategoryHandler, settingsHandler *SettingsHandler, overviewHandler *OverviewHandler, wsHandler *WebSocketHandler) {
	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/swagger/openapi3.json", ServeOpenAPI3Spec)

	// Realtime updates
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// Transaction routes (protected)
	transactions := api.Group("/transactions")
	transactions.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Category routes (protected)
	categories := api.Group("/categories")
	categories.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.DELETE("/:type/:name", categoryHandler.DeleteCategory)

	// Settings routes; a missing identity redirects to sign-in
	settings := api.Group("/settings")
	settings.Use(middleware.RateLimitMiddleware(rateLimiter))
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("/currency", settingsHandler.UpdateCurrency)
	settings.GET("/currencies", settingsHandler.GetCurrencies)

	// Overview routes (protected)
	overview := api.Group("/overview")
	overview.Use(authMiddleware.Authenticate())
	overview.GET("", overviewHandler.GetOverview)
}
