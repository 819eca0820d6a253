package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/handler"
	"github.com/iliyamo/train-ticket-reservation/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: fleet and
// network administration, run scheduling, order moderation and the
// dashboard counts.
func RegisterAdmin(e *echo.Echo, st *handler.StationHandler, tr *handler.TrainHandler, ca *handler.CarriageHandler, ro *handler.RouteHandler, ru *handler.RunHandler, or *handler.OrderHandler, ad *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Stations ----
	g.POST("/stations", st.Create)
	g.PUT("/stations/:id", st.Update)
	g.POST("/stations/:id/deprecate", st.Deprecate)
	g.DELETE("/stations/:id", st.Delete)

	// ---- Trains ----
	g.POST("/trains", tr.Create)
	g.POST("/trains/:id/valid", tr.SetValid)
	g.POST("/trains/:id/deprecate", tr.Deprecate)
	g.DELETE("/trains/:id", tr.Delete)

	// ---- Carriages ----
	g.POST("/carriages", ca.Create)
	g.POST("/carriages/:id/attach", ca.Attach)
	g.POST("/carriages/:id/deprecate", ca.Deprecate)
	g.DELETE("/carriages/:id", ca.Delete)

	// ---- Route templates ----
	g.POST("/routes", ro.Create)
	g.PUT("/routes/:id", ro.Rename)
	g.POST("/routes/:id/deprecate", ro.Deprecate)
	g.DELETE("/routes/:id", ro.Delete)

	// ---- Train runs ----
	g.POST("/runs", ru.Create)
	g.POST("/runs/:id/lock", ru.SetLocked)
	g.POST("/runs/:id/finish", ru.Finish)
	g.DELETE("/runs/:id", ru.Delete)

	// ---- Orders ----
	g.GET("/orders", or.ListAll)
	g.DELETE("/orders/:id", or.Remove)

	// ---- Dashboard ----
	g.GET("/admin/counts", ad.Counts)
	g.POST("/admin/users/:id/ban", ad.SetBanned)
}
