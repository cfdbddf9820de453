package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/service"
)

type RecommendationHandler struct {
	service service.RecommendationService
}

func NewRecommendationHandler(s service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: s}
}

// Recommend suggests a crop from live weather and the location's soil
// POST /api/v1/recommendations
func (h *RecommendationHandler) Recommend(c *fiber.Ctx) error {
	var req service.RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	rec, err := h.service.Recommend(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// NotificationStatus polls the delivery state of an SMS
// GET /api/v1/notifications/:id
func (h *RecommendationHandler) NotificationStatus(c *fiber.Ctx) error {
	receipt, err := h.service.NotificationStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipt)
}
