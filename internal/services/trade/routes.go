package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов
func (s *TradeService) SetupRoutes(app *fiber.App) {
	api := app.Group("/trades")

	// Все маршруты обменов требуют авторизации
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateTrade)
	api.Get("/", s.GetMyTrades)
	api.Get("/:id", s.GetTrade)
	api.Put("/:id/accept", s.AcceptTrade)
	api.Put("/:id/decline", s.DeclineTrade)
	api.Put("/:id/complete", s.CompleteTrade)
}
