package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/model"
	"agrimarket/internal/service"
)

type OfferHandler struct {
	service service.OfferService
}

func NewOfferHandler(s service.OfferService) *OfferHandler {
	return &OfferHandler{service: s}
}

// SubmitOffer places a buyer's bid on a listing
// POST /api/v1/offers
func (h *OfferHandler) SubmitOffer(c *fiber.Ctx) error {
	var req service.SubmitOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	offer, err := h.service.SubmitOffer(c.UserContext(), currentActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Offer submitted", "data": offer})
}

// AcceptOffer records the sale and returns the transaction
// POST /api/v1/offers/:id/accept
func (h *OfferHandler) AcceptOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	tx, err := h.service.AcceptOffer(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer accepted", "data": tx})
}

// POST /api/v1/offers/:id/reject
func (h *OfferHandler) RejectOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	offer, err := h.service.RejectOffer(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer rejected", "data": offer})
}

// POST /api/v1/offers/:id/cancel
func (h *OfferHandler) CancelOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	offer, err := h.service.CancelOffer(c.UserContext(), currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer cancelled", "data": offer})
}

// GetOffer returns one offer and, once accepted, the transaction it produced
// GET /api/v1/offers/:id
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid offer ID"})
	}

	detail, err := h.service.GetOfferDetail(currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetOffers lists every offer, optionally filtered by ?status=
// GET /api/v1/offers
func (h *OfferHandler) GetOffers(c *fiber.Ctx) error {
	offers, err := h.service.ListByStatus(currentActor(c), model.OfferStatus(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offers)
}

// GetMyOffers returns what the caller's role sees: sent, received or brokered offers
// GET /api/v1/offers/mine
func (h *OfferHandler) GetMyOffers(c *fiber.Ctx) error {
	offers, err := h.service.ListMine(currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(offers)
}
