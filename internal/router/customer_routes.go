package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/handler"
	"github.com/iliyamo/train-ticket-reservation/internal/middleware"
)

// RegisterOrders registers the order lifecycle endpoints under /v1.  All
// routes require a valid JWT; ownership is enforced in the handlers, with
// admins allowed through for lookup and cancellation.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "ADMIN"),
	)
	g.POST("/orders", h.Create)
	g.PATCH("/orders/:id/complete", h.Complete)
	g.PATCH("/orders/:id/cancel", h.Cancel)
	g.GET("/orders/:id", h.Get)
	g.GET("/orders/:id/qr", h.QR)
	g.GET("/me/orders", h.ListMine)
}
