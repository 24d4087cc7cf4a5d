package book

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookverse-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API книг. Просмотр каталога публичный,
// управление своими книгами требует авторизации. /books/my регистрируется
// раньше /books/:id, иначе "my" разберётся как ID.
func (s *BookService) SetupRoutes(app *fiber.App) {
	authMiddleware := middleware.AuthMiddleware(s.jwtService)

	app.Get("/books", s.GetPublicBooks)
	app.Get("/books/my", s.GetMyBooks, authMiddleware)
	app.Get("/books/:id", s.GetBook)
	app.Post("/books", s.CreateBook, authMiddleware)
	app.Put("/books/:id", s.UpdateBook, authMiddleware)
	app.Delete("/books/:id", s.DeleteBook, authMiddleware)
}
