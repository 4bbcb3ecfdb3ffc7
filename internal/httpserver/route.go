package httpserver

import (
	"net/http"

	"github.com/frunko/frunko/internal/middleware"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CouponHandler  *CouponHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	UserHandler    *UserHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.RequireAuth(d.JWTSecret)
	adminMW := middleware.RequireRole("admin")

	api := e.Group("/api")

	api.POST("/coupons/validate", d.CouponHandler.Validate)

	orders := api.Group("/orders")
	orders.Use(authMW)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	payment := api.Group("/payment")
	payment.POST("/initiate", d.PaymentHandler.Initiate, authMW)
	payment.GET("/status/:id", d.PaymentHandler.Status, authMW)
	// the gateway posts here via browser redirect; identity comes from the
	// checksum, not from a session
	payment.POST("/callback", d.PaymentHandler.Callback)

	admin := api.Group("/admin")
	admin.Use(authMW, adminMW)

	admin.POST("/coupons", d.CouponHandler.Create)
	admin.GET("/coupons", d.CouponHandler.List)
	admin.PUT("/coupons/:id", d.CouponHandler.Update)
	admin.DELETE("/coupons/:id", d.CouponHandler.Delete)

	admin.GET("/orders", d.OrderHandler.ListAllOrders)
	admin.GET("/orders/search", d.OrderHandler.SearchOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)

	admin.GET("/users", d.UserHandler.List)
	admin.POST("/users", d.UserHandler.Create)
	admin.PATCH("/users/:id/block", d.UserHandler.SetBlocked)
}
