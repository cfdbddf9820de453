package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/service"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(currentActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stats)
}

func (h *DashboardHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.GetTransactions(currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

func (h *DashboardHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.service.GetTransaction(currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}
