package server

import (
	"github.com/labstack/echo/v4"

	"github.com/vidmem/vidmem/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Ingestion routes
	apiRoutes.POST("/videos", routes.IngestVideoHandler)

	// Graph routes
	apiRoutes.GET("/graphs/:id", routes.GetGraphHandler)
	apiRoutes.POST("/graphs/:id/query", routes.QueryGraphHandler)
}
