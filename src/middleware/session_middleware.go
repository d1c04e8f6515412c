package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/lib"
	"github.com/talentgrid/connect/src/models"
)

// SessionRoute resolves the viewer identity from the bearer token and
// attaches the viewer's profile to the request context. Issuing tokens is
// the auth service's job; only verification against the configured secret
// happens here.
func SessionRoute(gw gateway.Gateway, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Obtener token del header Authorization
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("No autorizado - Token no proporcionado"))
		}

		// Extraer el token (formato esperado: "Bearer <token>")
		var token string
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("No autorizado - Formato de token inválido"))
		}

		decoded, err := lib.VerifyJWT(token, jwtSecret)
		if err != nil || decoded == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("No autorizado - Token inválido"))
		}

		userID, ok := decoded["userId"].(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("No autorizado - Token inválido"))
		}

		objectID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("ID de usuario inválido"))
		}

		var profiles []models.Profile
		err = gw.Query(c.Context(), gateway.RelationProfiles, gateway.Query{
			Filter: gateway.Filter{"_id": objectID},
			Limit:  1,
		}, &profiles)
		if err != nil || len(profiles) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Usuario no encontrado"))
		}

		c.Locals("viewer", profiles[0])

		return c.Next()
	}
}
