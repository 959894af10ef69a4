package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meterforecast/backend/internal/service"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, forecastSvc *service.ForecastService, directory service.Directory) {
	handler := NewHandler(forecastSvc, directory)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	{
		// Prediction endpoints
		api.Get("/predict", handler.Predict)
		api.Post("/predict", handler.PredictUpload)
		api.Get("/meters/:meter_id/runs", handler.GetRecentRuns)

		// Directory endpoints used to populate client selectors
		api.Get("/business_ids", handler.GetBusinessIDs)
		api.Get("/meter_ids", handler.GetMeterIDs)
	}
}
