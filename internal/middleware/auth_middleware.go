package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeNoToken, "Отсутствует заголовок авторизации")
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeNoToken, "Неверный формат заголовка авторизации")
		}

		tokenString := parts[1]
		userID, err := jwtService.ExtractUserID(tokenString)
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeInvalidToken, "Невалидный или истёкший токен")
		}

		// Проверяем, что userID является валидным UUID
		_, err = uuid.Parse(userID)
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, utils.CodeInvalidToken, "Невалидный ID пользователя")
		}

		// Добавляем userID в контекст
		c.Locals("userID", userID)

		return c.Next()
	}
}
