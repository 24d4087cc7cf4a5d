package book

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// BookService представляет сервис для работы с книгами
type BookService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewBookService создает новый экземпляр BookService
func NewBookService(cfg *config.Config) *BookService {
	return &BookService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateBook добавляет книгу пользователя
func (s *BookService) CreateBook(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Title     string `json:"title"`
		Author    string `json:"author"`
		Condition string `json:"condition"`
		Genre     string `json:"genre"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	title := strings.TrimSpace(requestData.Title)
	author := strings.TrimSpace(requestData.Author)

	if title == "" || author == "" {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeMissingRequiredFields, "Название и автор обязательны")
	}

	if !models.IsValidCondition(requestData.Condition) {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Недопустимое состояние книги")
	}

	book := models.Book{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Author:      author,
		Condition:   requestData.Condition,
		Genre:       strings.TrimSpace(requestData.Genre),
		IsAvailable: true,
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	err = db.Pool.QueryRow(ctx, `
        INSERT INTO books (id, owner_id, title, author, condition, genre)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `, book.ID, book.OwnerID, book.Title, book.Author, book.Condition, book.Genre).Scan(&book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		logger.Errorf("Ошибка создания книги: %v", err)
		return utils.FailInternal(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"book":    book,
	})
}

// GetPublicBooks возвращает доступные для обмена книги с фильтрами
func (s *BookService) GetPublicBooks(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	genre := c.Query("genre", "")
	search := c.Query("search", "")

	query := `
        SELECT id, owner_id, title, author, condition, genre, is_available, created_at, updated_at
        FROM books
        WHERE is_available = TRUE
    `
	args := []interface{}{}

	if genre != "" {
		args = append(args, genre)
		query += ` AND genre = $` + strconv.Itoa(len(args))
	}

	if search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (title ILIKE $` + n + ` OR author ILIKE $` + n + `)`
	}

	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		logger.Errorf("Ошибка запроса книг: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := scanBook(rows, &book); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}

		book.Owner = db.GetUserInfo(ctx, book.OwnerID)
		books = append(books, book)
	}

	return c.JSON(fiber.Map{
		"books":  books,
		"count":  len(books),
		"limit":  limit,
		"offset": offset,
	})
}

// GetMyBooks возвращает книги текущего пользователя, включая недоступные
func (s *BookService) GetMyBooks(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, owner_id, title, author, condition, genre, is_available, created_at, updated_at
        FROM books
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)

	if err != nil {
		logger.Errorf("Ошибка запроса книг пользователя: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := scanBook(rows, &book); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}
		books = append(books, book)
	}

	return c.JSON(fiber.Map{
		"books": books,
		"count": len(books),
	})
}

// GetBook возвращает одну книгу по ID
func (s *BookService) GetBook(c fiber.Ctx) error {
	bookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidBookID, "Неверный формат ID книги")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var book models.Book
	err = db.Pool.QueryRow(ctx, `
        SELECT id, owner_id, title, author, condition, genre, is_available, created_at, updated_at
        FROM books
        WHERE id = $1
    `, bookID).Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Condition,
		&book.Genre,
		&book.IsAvailable,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeBookNotFound, "Книга не найдена")
		}
		logger.Errorf("Ошибка запроса книги: %v", err)
		return utils.FailInternal(c)
	}

	book.Owner = db.GetUserInfo(ctx, book.OwnerID)

	return c.JSON(fiber.Map{
		"success": true,
		"book":    book,
	})
}

// UpdateBook обновляет книгу, в том числе флаг доступности.
// Флаг доступности меняет только владелец, обмены его не трогают.
func (s *BookService) UpdateBook(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	bookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidBookID, "Неверный формат ID книги")
	}

	var requestData struct {
		Title       *string `json:"title"`
		Author      *string `json:"author"`
		Condition   *string `json:"condition"`
		Genre       *string `json:"genre"`
		IsAvailable *bool   `json:"is_available"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var book models.Book
	err = db.Pool.QueryRow(ctx, `
        SELECT id, owner_id, title, author, condition, genre, is_available, created_at, updated_at
        FROM books
        WHERE id = $1
    `, bookID).Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Condition,
		&book.Genre,
		&book.IsAvailable,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeBookNotFound, "Книга не найдена")
		}
		logger.Errorf("Ошибка запроса книги: %v", err)
		return utils.FailInternal(c)
	}

	if book.OwnerID != ownerID {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotBookOwner, "Вы не являетесь владельцем этой книги")
	}

	if requestData.Title != nil {
		title := strings.TrimSpace(*requestData.Title)
		if title == "" {
			return utils.Fail(c, fiber.StatusBadRequest, utils.CodeMissingRequiredFields, "Название не может быть пустым")
		}
		book.Title = title
	}

	if requestData.Author != nil {
		author := strings.TrimSpace(*requestData.Author)
		if author == "" {
			return utils.Fail(c, fiber.StatusBadRequest, utils.CodeMissingRequiredFields, "Автор не может быть пустым")
		}
		book.Author = author
	}

	if requestData.Condition != nil {
		if !models.IsValidCondition(*requestData.Condition) {
			return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Недопустимое состояние книги")
		}
		book.Condition = *requestData.Condition
	}

	if requestData.Genre != nil {
		book.Genre = strings.TrimSpace(*requestData.Genre)
	}

	if requestData.IsAvailable != nil {
		book.IsAvailable = *requestData.IsAvailable
	}

	err = db.Pool.QueryRow(ctx, `
        UPDATE books
        SET title = $1, author = $2, condition = $3, genre = $4, is_available = $5, updated_at = NOW()
        WHERE id = $6
        RETURNING updated_at
    `, book.Title, book.Author, book.Condition, book.Genre, book.IsAvailable, bookID).Scan(&book.UpdatedAt)

	if err != nil {
		logger.Errorf("Ошибка обновления книги: %v", err)
		return utils.FailInternal(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"book":    book,
	})
}

// DeleteBook удаляет книгу владельца. Книга, на которую ссылаются обмены,
// не удаляется — история обменов сохраняется.
func (s *BookService) DeleteBook(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	bookID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidBookID, "Неверный формат ID книги")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var bookOwnerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
        SELECT owner_id FROM books WHERE id = $1
    `, bookID).Scan(&bookOwnerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeBookNotFound, "Книга не найдена")
		}
		logger.Errorf("Ошибка запроса книги: %v", err)
		return utils.FailInternal(c)
	}

	if bookOwnerID != ownerID {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotBookOwner, "Вы не являетесь владельцем этой книги")
	}

	_, err = db.Pool.Exec(ctx, `
        DELETE FROM books WHERE id = $1
    `, bookID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return utils.Fail(c, fiber.StatusConflict, utils.CodeBookInTrade, "Книга участвует в обменах и не может быть удалена")
		}
		logger.Errorf("Ошибка удаления книги: %v", err)
		return utils.FailInternal(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Книга удалена",
	})
}

// scanBook сканирует строку книги из результата запроса
func scanBook(rows pgx.Rows, book *models.Book) error {
	return rows.Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Condition,
		&book.Genre,
		&book.IsAvailable,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
}
