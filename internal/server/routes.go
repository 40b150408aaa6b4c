package server

import (
	"github.com/labstack/echo/v4"

	"github.com/conformitas/veridoc/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Document routes
	apiRoutes.POST("/documents", routes.UploadDocumentHandler)

	// Review routes
	apiRoutes.POST("/reviews", routes.CreateReviewHandler)

	// Corpus routes
	apiRoutes.POST("/corpus/ingest", routes.StartIngestHandler)
}
