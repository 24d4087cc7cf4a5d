package rating

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API оценок
func (s *RatingService) SetupRoutes(app *fiber.App) {
	api := app.Group("/ratings")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.SubmitRating)
	api.Get("/trade/:tradeId", s.GetRatingForTrade)
	api.Get("/user/:userId", s.GetUserRatings)
}
