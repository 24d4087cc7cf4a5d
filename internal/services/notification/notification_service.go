package notification

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// NotificationService представляет сервис для работы с уведомлениями
type NotificationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetNotifications возвращает уведомления текущего пользователя
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	onlyUnread := c.Query("unread", "false") == "true"

	query := `
        SELECT id, user_id, type, payload, is_read, created_at
        FROM notifications
        WHERE user_id = $1
    `
	if onlyUnread {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		logger.Errorf("Ошибка запроса уведомлений: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
		"limit":         limit,
		"offset":        offset,
	})
}

// MarkRead отмечает уведомление прочитанным
func (s *NotificationService) MarkRead(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID уведомления")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Чужие уведомления не видны, поэтому фильтр по user_id
	tag, err := db.Pool.Exec(ctx, `
        UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
    `, notificationID, userID)

	if err != nil {
		logger.Errorf("Ошибка обновления уведомления: %v", err)
		return utils.FailInternal(c)
	}

	if tag.RowsAffected() == 0 {
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeNotificationNotFound, "Уведомление не найдено")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Уведомление отмечено прочитанным",
	})
}
