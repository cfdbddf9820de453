package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/service"
)

type MarketHandler struct {
	service service.MarketService
}

func NewMarketHandler(s service.MarketService) *MarketHandler {
	return &MarketHandler{service: s}
}

// GET /api/v1/market/prices
func (h *MarketHandler) GetPrices(c *fiber.Ctx) error {
	prices, err := h.service.ListPrices(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(prices)
}

// GET /api/v1/market/prices/:crop
func (h *MarketHandler) GetPrice(c *fiber.Ctx) error {
	price, err := h.service.GetPrice(c.UserContext(), c.Params("crop"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(price)
}

// UpdatePrice sets today's reference price for a crop
// PUT /api/v1/market/prices/:crop
func (h *MarketHandler) UpdatePrice(c *fiber.Ctx) error {
	var req service.UpdatePriceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	price, err := h.service.UpdatePrice(c.UserContext(), currentActor(c), c.Params("crop"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Market price updated", "data": price})
}
