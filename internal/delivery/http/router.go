package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civitas/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, reportSvc *service.ReportService, repo service.DataRepository) {
	handler := NewHandler(reportSvc, repo)

	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Cloning detection
		api.Post("/detect", handler.DetectCloning)

		// Run history
		api.Get("/detections", handler.GetDetectionRuns)
	}
}
