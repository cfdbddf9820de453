package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/middleware"
	"agrimarket/internal/model"
	"agrimarket/internal/service"
	"agrimarket/pkg/jwt"
	"agrimarket/pkg/logger"
)

// statusFor maps a core error onto an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, marketerrors.ErrDuplicateEmail):
		return fiber.StatusConflict
	case errors.Is(err, marketerrors.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, marketerrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, marketerrors.ErrInvalidState),
		errors.Is(err, marketerrors.ErrInsufficientQuantity):
		return fiber.StatusConflict
	case errors.Is(err, marketerrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, marketerrors.ErrValidation),
		errors.Is(err, service.ErrWrongPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, marketerrors.ErrRecommendationUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal failures are logged and not echoed.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Request failed", map[string]any{
			"method": c.Method(),
			"path":   c.Path(),
			"error":  err.Error(),
		})
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// currentActor reads the caller set by the auth middleware
func currentActor(c *fiber.Ctx) model.Actor {
	actor, _ := middleware.ActorFrom(c)
	return actor
}

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, marketerrors.ErrValidation
	}
	return uint(id), nil
}

// queryID parses an optional numeric query parameter
func queryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, marketerrors.ErrValidation
	}
	v := uint(id)
	return &v, nil
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}
