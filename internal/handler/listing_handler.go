package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/model"
	"agrimarket/internal/repository"
	"agrimarket/internal/service"
)

type ListingHandler struct {
	service service.ListingService
}

func NewListingHandler(s service.ListingService) *ListingHandler {
	return &ListingHandler{service: s}
}

// CreateListing posts produce for sale
// POST /api/v1/listings
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	var req service.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	listing, err := h.service.CreateListing(currentActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Listing created", "data": listing})
}

// GetListings returns listings, available ones unless ?status= says otherwise
// GET /api/v1/listings?farmer_id=&agent_id=&status=&crop=
func (h *ListingHandler) GetListings(c *fiber.Ctx) error {
	farmerID, err := queryID(c, "farmer_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid farmer_id"})
	}
	agentID, err := queryID(c, "agent_id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid agent_id"})
	}

	listings, err := h.service.ListListings(repository.ListingFilter{
		Status:   model.ListingStatus(c.Query("status")),
		FarmerID: farmerID,
		AgentID:  agentID,
		Crop:     c.Query("crop"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid listing ID"})
	}

	listing, err := h.service.GetListing(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// UpdateStatus marks a listing sold or cancelled
// PUT /api/v1/listings/:id/status
func (h *ListingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid listing ID"})
	}

	var req struct {
		Status model.ListingStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	listing, err := h.service.SetStatus(currentActor(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing updated", "data": listing})
}
