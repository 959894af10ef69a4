package http

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meterforecast/backend/internal/domain"
	"github.com/meterforecast/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	forecastSvc *service.ForecastService
	directory   service.Directory
}

// NewHandler creates a new handler
func NewHandler(forecastSvc *service.ForecastService, directory service.Directory) *Handler {
	return &Handler{
		forecastSvc: forecastSvc,
		directory:   directory,
	}
}

// PredictionData is the payload of a prediction response
type PredictionData struct {
	MeterID     string      `json:"meter_id"`
	Timestamps  []time.Time `json:"timestamps"`
	Consumption []float64   `json:"consumption"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	database := "ok"
	if err := h.forecastSvc.Health(c.UserContext()); err != nil {
		status = "degraded"
		database = err.Error()
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"service":  "meterforecast-backend",
		"version":  "1.0.0",
		"database": database,
	})
}

// Predict forecasts consumption from a weather CSV fetched from csv_url
func (h *Handler) Predict(c *fiber.Ctx) error {
	meterID := c.Query("meter_id")
	csvURL := c.Query("csv_url")
	if meterID == "" || csvURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "meter_id and csv_url are required")
	}

	result, err := h.forecastSvc.PredictFromURL(c.UserContext(), meterID, csvURL)
	if err != nil {
		return predictionError(err)
	}
	return predictionResponse(c, result)
}

// PredictUpload forecasts consumption from a weather CSV sent as multipart field "file" or as the body
func (h *Handler) PredictUpload(c *fiber.Ctx) error {
	meterID := c.Query("meter_id")
	if meterID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "meter_id is required")
	}

	var result domain.PredictionResult
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid upload")
		}
		defer f.Close()
		result, err = h.forecastSvc.PredictFromCSV(c.UserContext(), meterID, f)
		if err != nil {
			return predictionError(err)
		}
	} else {
		body := c.Body()
		if len(body) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "CSV body or file upload is required")
		}
		result, err = h.forecastSvc.PredictFromCSV(c.UserContext(), meterID, bytes.NewReader(body))
		if err != nil {
			return predictionError(err)
		}
	}
	return predictionResponse(c, result)
}

// GetRecentRuns returns the latest prediction runs of a meter
func (h *Handler) GetRecentRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}

	runs, err := h.forecastSvc.RecentRuns(c.UserContext(), c.Params("meter_id"), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch prediction runs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    runs,
		"count":   len(runs),
	})
}

// GetBusinessIDs returns every known business id
func (h *Handler) GetBusinessIDs(c *fiber.Ctx) error {
	ids, err := h.directory.BusinessIDs(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch business ids")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    ids,
	})
}

// GetMeterIDs returns the meters owned by business_id
func (h *Handler) GetMeterIDs(c *fiber.Ctx) error {
	businessID := c.Query("business_id")
	if businessID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "business_id is required")
	}

	ids, err := h.directory.MeterIDs(c.UserContext(), businessID)
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Unknown business")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch meter ids")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    ids,
	})
}

func predictionResponse(c *fiber.Ctx, result domain.PredictionResult) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": PredictionData{
			MeterID:     result.MeterID,
			Timestamps:  result.Timestamps(),
			Consumption: result.Values(),
		},
	})
}
