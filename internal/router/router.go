// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/handler"
	"github.com/iliyamo/train-ticket-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; protected endpoints
// live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body and needs no JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "CUSTOMER"),
	)
	auth.GET("/me", a.Me)
	// Protected logout revokes every session of the current user.
	auth.POST("/logout", a.Logout)
}

// RegisterBrowse registers the authenticated read-only projections:
// station, train, route and run lookups, including the per-run slot
// availability view.  Responses go through the Redis cache middleware.
func RegisterBrowse(e *echo.Echo, st *handler.StationHandler, tr *handler.TrainHandler, ca *handler.CarriageHandler, ro *handler.RouteHandler, ru *handler.RunHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "CUSTOMER"),
		cache,
	)
	g.GET("/stations", st.List)
	g.GET("/stations/:id", st.Get)
	g.GET("/trains", tr.List)
	g.GET("/trains/:id", tr.Get)
	g.GET("/carriages/:id", ca.Get)
	g.GET("/routes", ro.List)
	g.GET("/routes/:id", ro.Get)
	g.GET("/runs", ru.List)
	g.GET("/runs/:id", ru.Get)
	g.GET("/runs/:id/slots", ru.ListSlots)
}
