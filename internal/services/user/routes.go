package user

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API пользователей.
// /users/me регистрируется раньше /users/:id, иначе "me" разберётся как ID.
func (s *UserService) SetupRoutes(app *fiber.App) {
	authMiddleware := middleware.AuthMiddleware(s.jwtService)

	app.Get("/users/me", s.GetMe, authMiddleware)
	app.Put("/users/me", s.UpdateMe, authMiddleware)
	app.Get("/users/:id", s.GetUser)
}
