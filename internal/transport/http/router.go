package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/handlers"
	authmw "github.com/mkuznetsov/petrofleet/internal/middleware/auth"
	"github.com/mkuznetsov/petrofleet/internal/session"
)

type Deps struct {
	DB          *gorm.DB
	Sessions    *session.Manager
	Auth        *handlers.AuthHandler
	Vehicles    *handlers.VehicleHandler
	Drivers     *handlers.DriverHandler
	Routes      *handlers.RouteHandler
	Trips       *handlers.TripHandler
	Maintenance *handlers.MaintenanceHandler
	Devices     *handlers.DeviceHandler
	GPS         *handlers.GPSHandler
	Dashboard   *handlers.DashboardHandler
	Search      *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	// perimeter filter for the UI roots: cookie presence only
	pages := e.Group("", authmw.CookieGate)
	pages.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"page": "login"})
	})
	pages.GET("/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"page": "login"})
	})
	pages.GET("/dashboard*", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"page": "dashboard"})
	})

	v1 := e.Group("/api/v1")

	v1.POST("/login", d.Auth.Login)
	v1.POST("/logout", d.Auth.Logout)
	v1.POST("/gps", d.GPS.Ingest)

	// authoritative session validation happens here, at the point of use
	protected := v1.Group("", authmw.RequireSession(d.Sessions))

	protected.GET("/me", d.Auth.Me)
	protected.GET("/dashboard", d.Dashboard.Summary)
	protected.GET("/search", d.Search.Search)

	vehicles := protected.Group("/vehicles")
	vehicles.POST("", d.Vehicles.Create)
	vehicles.GET("", d.Vehicles.List)
	vehicles.GET("/:id", d.Vehicles.Get)
	vehicles.PATCH("/:id", d.Vehicles.Patch)
	vehicles.DELETE("/:id", d.Vehicles.Delete)

	drivers := protected.Group("/drivers")
	drivers.POST("", d.Drivers.Create)
	drivers.GET("", d.Drivers.List)
	drivers.GET("/:id", d.Drivers.Get)
	drivers.PATCH("/:id", d.Drivers.Patch)
	drivers.DELETE("/:id", d.Drivers.Delete)

	routes := protected.Group("/routes")
	routes.POST("", d.Routes.Create)
	routes.GET("", d.Routes.List)
	routes.GET("/:id", d.Routes.Get)
	routes.PATCH("/:id", d.Routes.Patch)
	routes.DELETE("/:id", d.Routes.Delete)

	trips := protected.Group("/trips")
	trips.POST("", d.Trips.Create)
	trips.GET("", d.Trips.List)
	trips.GET("/:id", d.Trips.Get)
	trips.PATCH("/:id", d.Trips.Patch)
	trips.DELETE("/:id", d.Trips.Delete)
	trips.POST("/:id/start", d.Trips.Start)
	trips.POST("/:id/complete", d.Trips.Complete)
	trips.POST("/:id/cancel", d.Trips.Cancel)

	maintenance := protected.Group("/maintenance")
	maintenance.POST("", d.Maintenance.Create)
	maintenance.GET("", d.Maintenance.List)
	maintenance.GET("/:id", d.Maintenance.Get)
	maintenance.PATCH("/:id", d.Maintenance.Patch)
	maintenance.DELETE("/:id", d.Maintenance.Delete)

	devices := protected.Group("/devices")
	devices.POST("", d.Devices.Register)
	devices.GET("", d.Devices.List)
	devices.GET("/:id", d.Devices.Get)
	devices.GET("/:id/points", d.GPS.Points)
	devices.DELETE("/:id", d.Devices.Delete)
}
