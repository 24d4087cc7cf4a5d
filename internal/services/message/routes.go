package message

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сообщений
func (s *MessageService) SetupRoutes(app *fiber.App) {
	api := app.Group("/messages")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.SendMessage)
	api.Get("/trade/:tradeId", s.GetTradeMessages)
}
