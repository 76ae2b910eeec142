package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nchikhaoui/gestistock/internal/handlers"
	"github.com/nchikhaoui/gestistock/internal/token"
)

type Deps struct {
	AuthHandler         *handlers.AuthHandler
	ProductHandler      *handlers.ProductHandler
	CategoryHandler     *handlers.CategoryHandler
	SupplierHandler     *handlers.SupplierHandler
	ClientHandler       *handlers.ClientHandler
	LoyaltyHandler      *handlers.LoyaltyHandler
	UserHandler         *handlers.UserHandler
	OrderHandler        *handlers.OrderHandler
	NotificationHandler *handlers.NotificationHandler
	StatsHandler        *handlers.StatsHandler
	SearchHandler       *handlers.SearchHandler
	Tokens              *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	api.POST("/auth/login", d.AuthHandler.Login)

	auth := api.Group("", d.Tokens.Middleware)

	auth.GET("/auth/me", d.AuthHandler.Me)
	auth.POST("/auth/logout", d.AuthHandler.Logout)

	categories := auth.Group("/categories")
	categories.GET("", d.CategoryHandler.Index)
	categories.POST("", d.CategoryHandler.Store)
	categories.GET("/:id", d.CategoryHandler.Show)
	categories.PATCH("/:id", d.CategoryHandler.Update)
	categories.PUT("/:id", d.CategoryHandler.Update)
	categories.DELETE("/:id", d.CategoryHandler.Destroy)

	products := auth.Group("/produits")
	products.GET("", d.ProductHandler.List)
	products.POST("", d.ProductHandler.Create)
	products.GET("/:ref", d.ProductHandler.Get)
	products.PATCH("/:ref", d.ProductHandler.Update)
	products.PUT("/:ref", d.ProductHandler.Update)
	products.DELETE("/:ref", d.ProductHandler.Delete)

	suppliers := auth.Group("/fournisseurs")
	suppliers.GET("", d.SupplierHandler.Index)
	suppliers.POST("", d.SupplierHandler.Store)
	suppliers.GET("/:id", d.SupplierHandler.Show)
	suppliers.PATCH("/:id", d.SupplierHandler.Update)
	suppliers.PUT("/:id", d.SupplierHandler.Update)
	suppliers.DELETE("/:id", d.SupplierHandler.Destroy)

	clients := auth.Group("/clients")
	clients.GET("", d.ClientHandler.Index)
	clients.POST("", d.ClientHandler.Store)
	clients.GET("/:id", d.ClientHandler.Show)
	clients.PATCH("/:id", d.ClientHandler.Update)
	clients.PUT("/:id", d.ClientHandler.Update)
	clients.DELETE("/:id", d.ClientHandler.Destroy)

	orders := auth.Group("/commandes")
	orders.GET("", d.OrderHandler.Index)
	orders.POST("", d.OrderHandler.Store)
	orders.GET("/:id", d.OrderHandler.Show)
	orders.PATCH("/:id", d.OrderHandler.Update)
	orders.PUT("/:id", d.OrderHandler.Update)
	orders.DELETE("/:id", d.OrderHandler.Destroy)

	cards := auth.Group("/cartes-fidelite")
	cards.GET("", d.LoyaltyHandler.Index)
	cards.POST("", d.LoyaltyHandler.Store)
	cards.GET("/:number", d.LoyaltyHandler.Show)
	cards.PATCH("/:number", d.LoyaltyHandler.Update)
	cards.PUT("/:number", d.LoyaltyHandler.Update)
	cards.DELETE("/:number", d.LoyaltyHandler.Destroy)

	users := auth.Group("/users")
	users.GET("", d.UserHandler.Index)
	users.POST("", d.UserHandler.Store)
	users.DELETE("/:id", d.UserHandler.Destroy)

	auth.GET("/notifications", d.NotificationHandler.Index)
	auth.PATCH("/notifications/read-all", d.NotificationHandler.MarkAllRead)
	auth.PATCH("/notifications/:id/read", d.NotificationHandler.MarkRead)

	auth.GET("/stats/overview", d.StatsHandler.Overview)

	if d.SearchHandler != nil {
		auth.GET("/search", d.SearchHandler.Handler)
	}
}
