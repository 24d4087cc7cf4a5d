package wishlist

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// WishlistService представляет сервис для работы со списком желаемых книг
type WishlistService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewWishlistService создает новый экземпляр WishlistService
func NewWishlistService(cfg *config.Config) *WishlistService {
	return &WishlistService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// AddItem добавляет книгу в список желаемого
func (s *WishlistService) AddItem(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	title := strings.TrimSpace(requestData.Title)
	if title == "" {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeMissingRequiredFields, "Название обязательно")
	}

	item := models.WishlistItem{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Author: strings.TrimSpace(requestData.Author),
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	err = db.Pool.QueryRow(ctx, `
        INSERT INTO wishlist_items (id, user_id, title, author)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `, item.ID, item.UserID, item.Title, item.Author).Scan(&item.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return utils.Fail(c, fiber.StatusConflict, utils.CodeDuplicateWishlistItem, "Такая книга уже есть в списке желаемого")
		}
		logger.Errorf("Ошибка добавления в список желаемого: %v", err)
		return utils.FailInternal(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// GetItems возвращает список желаемых книг пользователя
func (s *WishlistService) GetItems(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	items, err := loadItems(ctx, userID)
	if err != nil {
		logger.Errorf("Ошибка запроса списка желаемого: %v", err)
		return utils.FailInternal(c)
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// RemoveItem удаляет запись из списка желаемого
func (s *WishlistService) RemoveItem(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID записи")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
        DELETE FROM wishlist_items WHERE id = $1 AND user_id = $2
    `, itemID, userID)

	if err != nil {
		logger.Errorf("Ошибка удаления из списка желаемого: %v", err)
		return utils.FailInternal(c)
	}

	if tag.RowsAffected() == 0 {
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeWishlistItemNotFound, "Запись не найдена")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Запись удалена из списка желаемого",
	})
}

// GetMatches сопоставляет список желаемого с доступными книгами других
// пользователей. Объёмы небольшие, поэтому сопоставление идёт в памяти
// по всем доступным книгам.
func (s *WishlistService) GetMatches(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	items, err := loadItems(ctx, userID)
	if err != nil {
		logger.Errorf("Ошибка запроса списка желаемого: %v", err)
		return utils.FailInternal(c)
	}

	if len(items) == 0 {
		return c.JSON(fiber.Map{
			"matches": []models.WishlistMatch{},
			"count":   0,
		})
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, owner_id, title, author, condition, genre, is_available, created_at, updated_at
        FROM books
        WHERE is_available = TRUE AND owner_id != $1
    `, userID)

	if err != nil {
		logger.Errorf("Ошибка запроса доступных книг: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var matches []models.WishlistMatch
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(
			&book.ID,
			&book.OwnerID,
			&book.Title,
			&book.Author,
			&book.Condition,
			&book.Genre,
			&book.IsAvailable,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}

		for _, item := range items {
			score, ok := MatchesItem(item.Title, item.Author, book.Title, book.Author)
			if !ok {
				continue
			}

			bookCopy := book
			bookCopy.Owner = db.GetUserInfo(ctx, book.OwnerID)
			matches = append(matches, models.WishlistMatch{
				Item:  item,
				Book:  bookCopy,
				Score: score,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return c.JSON(fiber.Map{
		"matches": matches,
		"count":   len(matches),
	})
}

// loadItems загружает список желаемого пользователя
func loadItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, user_id, title, author, created_at
        FROM wishlist_items
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.WishlistItem
	for rows.Next() {
		var item models.WishlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Author, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
