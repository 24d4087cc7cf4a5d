package notification

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	api := app.Group("/notifications")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetNotifications)
	api.Put("/:id/read", s.MarkRead)
}
