package message

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
	"github.com/rajivgeraev/bookverse-api/internal/notify"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// MessageService представляет сервис переписки по принятым обменам
type MessageService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	notifier   *notify.Notifier
}

// NewMessageService создает новый экземпляр MessageService
func NewMessageService(cfg *config.Config, notifier *notify.Notifier) *MessageService {
	return &MessageService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		notifier:   notifier,
	}
}

// validateContent обрезает пробелы и проверяет длину сообщения.
// Возвращает обрезанный текст и код ошибки, пустой код означает успех.
func validateContent(raw string) (string, string) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", utils.CodeEmptyContent
	}
	if len([]rune(content)) > models.MaxMessageLength {
		return "", utils.CodeContentTooLong
	}
	return content, ""
}

// SendMessage отправляет сообщение в переписку по обмену. Проверки идут в
// порядке существование -> участие -> статус, чтобы посторонний не узнал
// статус чужого обмена, а участник получил понятную ошибку про статус.
func (s *MessageService) SendMessage(c fiber.Ctx) error {
	senderID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Trade   string `json:"trade"`
		Content string `json:"content"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	content, errCode := validateContent(requestData.Content)
	switch errCode {
	case utils.CodeEmptyContent:
		return utils.Fail(c, fiber.StatusBadRequest, errCode, "Сообщение не может быть пустым")
	case utils.CodeContentTooLong:
		return utils.Fail(c, fiber.StatusBadRequest, errCode, "Сообщение не может быть длиннее 1000 символов")
	}

	tradeID, err := uuid.Parse(requestData.Trade)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var trade models.Trade
	err = db.Pool.QueryRow(ctx, `
        SELECT id, proposer_id, receiver_id, status
        FROM trades
        WHERE id = $1
    `, tradeID).Scan(&trade.ID, &trade.ProposerID, &trade.ReceiverID, &trade.Status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeTradeNotFound, "Обмен не найден")
		}
		logger.Errorf("Ошибка запроса обмена: %v", err)
		return utils.FailInternal(c)
	}

	if !trade.IsParty(senderID) {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotAuthorized, "Вы не участвуете в этом обмене")
	}

	if trade.Status != models.TradeStatusAccepted {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeStatus, "Переписка доступна только по принятому обмену")
	}

	message := models.Message{
		ID:       uuid.New(),
		TradeID:  tradeID,
		SenderID: senderID,
		Content:  content,
	}

	err = db.Pool.QueryRow(ctx, `
        INSERT INTO messages (id, trade_id, sender_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `, message.ID, message.TradeID, message.SenderID, message.Content).Scan(&message.CreatedAt)

	if err != nil {
		logger.Errorf("Ошибка создания сообщения: %v", err)
		return utils.FailInternal(c)
	}

	message.Sender = db.GetUserInfo(ctx, senderID)

	s.notifier.Send(trade.OtherParty(senderID), models.NotificationNewMessage, map[string]interface{}{
		"trade_id":  tradeID,
		"sender_id": senderID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// GetTradeMessages возвращает переписку по обмену в порядке отправки
func (s *MessageService) GetTradeMessages(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	tradeID, err := uuid.Parse(c.Params("tradeId"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var trade models.Trade
	err = db.Pool.QueryRow(ctx, `
        SELECT id, proposer_id, receiver_id, status
        FROM trades
        WHERE id = $1
    `, tradeID).Scan(&trade.ID, &trade.ProposerID, &trade.ReceiverID, &trade.Status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeTradeNotFound, "Обмен не найден")
		}
		logger.Errorf("Ошибка запроса обмена: %v", err)
		return utils.FailInternal(c)
	}

	if !trade.IsParty(userID) {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotAuthorized, "Вы не участвуете в этом обмене")
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, trade_id, sender_id, content, created_at
        FROM messages
        WHERE trade_id = $1
        ORDER BY created_at ASC
    `, tradeID)

	if err != nil {
		logger.Errorf("Ошибка запроса сообщений: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.TradeID,
			&message.SenderID,
			&message.Content,
			&message.CreatedAt,
		); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}

		message.Sender = db.GetUserInfo(ctx, message.SenderID)
		messages = append(messages, message)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}
