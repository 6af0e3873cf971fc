package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/handlers"
	authmw "github.com/t2s-commerce/shop-api/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, echo.Map{"message": "Welcome to T2S E-Commerce API"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.LogOut)

	requireLogin := authmw.RequireLogin(d.JWTSecret)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, requireLogin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, requireLogin)

	orders := e.Group("/orders", requireLogin)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.ListOrders)
}
