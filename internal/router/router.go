// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carshare-console/internal/handler"
)

// Routes groups what RegisterRoutes needs.  Nil middleware entries are
// skipped.
type Routes struct {
	Console *handler.ConsoleHandler
	API     *handler.APIHandler
	Ready   handler.Pinger

	RateLimit echo.MiddlewareFunc // write routes only
	Cache     echo.MiddlewareFunc // read-only support endpoints only
}

// RegisterRoutes mounts the console, the JSON API and the probes.
func RegisterRoutes(e *echo.Echo, r Routes) {
	e.GET("/healthz", handler.Health)
	if r.Ready != nil {
		e.GET("/readyz", handler.Ready(r.Ready))
	}

	writes := optional(r.RateLimit)
	cached := optional(r.Cache)

	if r.Console != nil {
		e.GET("/", r.Console.Index)
		e.POST("/txn1", r.Console.Txn1, writes...)
		e.POST("/txn2", r.Console.Txn2, writes...)
		e.POST("/txn3", r.Console.Txn3, writes...)
	}

	if r.API != nil {
		v1 := e.Group("/api/v1")
		v1.GET("/locations", r.API.Locations)
		v1.GET("/zone-types", r.API.ZoneTypeList, cached...)
		v1.GET("/reservations", r.API.GetReservation)
		v1.POST("/reservations", r.API.CreateReservation, writes...)
		v1.POST("/maintenance-tickets/close", r.API.CloseTicket, writes...)
		v1.DELETE("/reservations", r.API.DeleteReservation, writes...)
	}
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
