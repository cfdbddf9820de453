package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation, including admin accounts
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.CreateUser(currentActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user.ToResponse(),
	})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser returns a single user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	user, err := h.userService.GetUserByID(currentActor(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// GetFarmers lists active farmers an agent can list produce for
// GET /api/v1/users/farmers
func (h *UserHandler) GetFarmers(c *fiber.Ctx) error {
	farmers, err := h.userService.GetFarmers(currentActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(farmers)
}

// SetActive enables or disables an account
// PUT /api/v1/users/:id/active
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return c.Status(400).JSON(fiber.Map{"error": "is_active is required"})
	}

	if err := h.userService.SetActive(currentActor(c), id, *req.IsActive); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "User status updated", "is_active": *req.IsActive})
}
