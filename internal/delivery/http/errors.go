package http

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/meterforecast/backend/internal/domain"
)

// predictionError maps pipeline error kinds to HTTP errors
func predictionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "No such meter: "+err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Not enough weather data: "+err.Error())
	case errors.Is(err, domain.ErrInputFormat):
		return fiber.NewError(fiber.StatusBadRequest, "Invalid weather data: "+err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		log.Printf("Prediction configuration error: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Prediction service misconfigured")
	default:
		log.Printf("Prediction failed: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "Failed to get prediction")
	}
}

// ErrorHandler renders every error as the JSON error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
