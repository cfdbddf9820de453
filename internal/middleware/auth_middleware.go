package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/model"
	"agrimarket/internal/service"
)

const actorKey = "actor"

// RequireAuth validates the bearer token against the stored session and puts the caller in context
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		actor, err := authService.ResolveActor(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RequireCapability checks that the authenticated caller's role grants capability
func RequireCapability(capability model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !actor.Role.Can(capability) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(capability) + "' capability",
			})
		}
		return c.Next()
	}
}

// RequireAnyCapability passes when the caller holds at least one of capabilities
func RequireAnyCapability(capabilities ...model.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		names := make([]string, 0, len(capabilities))
		for _, cp := range capabilities {
			if actor.Role.Can(cp) {
				return c.Next()
			}
			names = append(names, string(cp))
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " capabilities",
		})
	}
}

// ActorFrom returns the caller stored by RequireAuth
func ActorFrom(c *fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(actorKey).(model.Actor)
	return actor, ok
}
