package wishlist

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API списка желаемого
func (s *WishlistService) SetupRoutes(app *fiber.App) {
	api := app.Group("/wishlist")

	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.AddItem)
	api.Get("/", s.GetItems)
	api.Get("/matches", s.GetMatches)
	api.Delete("/:id", s.RemoveItem)
}
