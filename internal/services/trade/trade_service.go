package trade

import (
	"context"

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

// TradeService представляет сервис для работы с обменами
type TradeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	notifier   *notify.Notifier
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(cfg *config.Config, notifier *notify.Notifier) *TradeService {
	return &TradeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		notifier:   notifier,
	}
}

// CreateTrade создает новое предложение обмена
func (s *TradeService) CreateTrade(c fiber.Ctx) error {
	proposerID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Извлекаем данные из запроса
	var requestData struct {
		RequestedBook string `json:"requestedBook"`
		OfferedBook   string `json:"offeredBook"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	// Проверка обязательных полей
	if requestData.RequestedBook == "" || requestData.OfferedBook == "" {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeMissingRequiredFields, "Необходимо указать обе книги для обмена")
	}

	requestedBookID, err := uuid.Parse(requestData.RequestedBook)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidBookID, "Неверный формат ID запрашиваемой книги")
	}

	offeredBookID, err := uuid.Parse(requestData.OfferedBook)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidBookID, "Неверный формат ID предлагаемой книги")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Загружаем запрашиваемую книгу
	var requestedOwnerID uuid.UUID
	var requestedAvailable bool
	err = db.Pool.QueryRow(ctx, `
        SELECT owner_id, is_available FROM books WHERE id = $1
    `, requestedBookID).Scan(&requestedOwnerID, &requestedAvailable)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeRequestedBookNotFound, "Запрашиваемая книга не найдена")
		}
		logger.Errorf("Ошибка запроса запрашиваемой книги: %v", err)
		return utils.FailInternal(c)
	}

	// Загружаем предлагаемую книгу
	var offeredOwnerID uuid.UUID
	var offeredAvailable bool
	err = db.Pool.QueryRow(ctx, `
        SELECT owner_id, is_available FROM books WHERE id = $1
    `, offeredBookID).Scan(&offeredOwnerID, &offeredAvailable)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeOfferedBookNotFound, "Предлагаемая книга не найдена")
		}
		logger.Errorf("Ошибка запроса предлагаемой книги: %v", err)
		return utils.FailInternal(c)
	}

	// Предлагать можно только свою книгу
	if offeredOwnerID != proposerID {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotBookOwner, "Вы не можете предложить чужую книгу для обмена")
	}

	// Запрашивать свою книгу нельзя
	if requestedOwnerID == proposerID {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeCannotRequestOwnBook, "Вы не можете запросить собственную книгу")
	}

	if !requestedAvailable {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeRequestedBookUnavailable, "Запрашиваемая книга недоступна для обмена")
	}

	if !offeredAvailable {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeOfferedBookUnavailable, "Предлагаемая книга недоступна для обмена")
	}

	// Проверяем, не существует ли уже активное предложение с той же парой книг
	var existingTradeCount int
	err = db.Pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM trades
        WHERE requested_book_id = $1 AND offered_book_id = $2 AND status = 'proposed'
    `, requestedBookID, offeredBookID).Scan(&existingTradeCount)

	if err != nil {
		logger.Errorf("Ошибка проверки существующих предложений: %v", err)
		return utils.FailInternal(c)
	}

	if existingTradeCount > 0 {
		return utils.Fail(c, fiber.StatusConflict, utils.CodeDuplicateTrade, "Такое предложение обмена уже существует")
	}

	// Получатель — владелец запрашиваемой книги, клиент его не передаёт
	receiverID := requestedOwnerID

	trade := models.Trade{
		ID:              uuid.New(),
		ProposerID:      proposerID,
		ReceiverID:      receiverID,
		RequestedBookID: requestedBookID,
		OfferedBookID:   offeredBookID,
		Status:          models.TradeStatusProposed,
	}

	err = db.Pool.QueryRow(ctx, `
        INSERT INTO trades (id, proposer_id, receiver_id, requested_book_id, offered_book_id, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING proposed_at
    `, trade.ID, trade.ProposerID, trade.ReceiverID, trade.RequestedBookID, trade.OfferedBookID, trade.Status).Scan(&trade.ProposedAt)

	if err != nil {
		logger.Errorf("Ошибка создания предложения обмена: %v", err)
		return utils.FailInternal(c)
	}

	s.hydrateTrade(ctx, &trade)

	s.notifier.Send(receiverID, models.NotificationTradeProposed, map[string]interface{}{
		"trade_id":    trade.ID,
		"proposer_id": proposerID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"trade":   trade,
	})
}

// AcceptTrade принимает предложение обмена
func (s *TradeService) AcceptTrade(c fiber.Ctx) error {
	return s.transition(c, models.TradeStatusAccepted)
}

// DeclineTrade отклоняет предложение обмена
func (s *TradeService) DeclineTrade(c fiber.Ctx) error {
	return s.transition(c, models.TradeStatusDeclined)
}

// CompleteTrade отмечает принятый обмен завершённым
func (s *TradeService) CompleteTrade(c fiber.Ctx) error {
	return s.transition(c, models.TradeStatusCompleted)
}

// transition выполняет переход статуса обмена. Сам UPDATE условный
// (WHERE status = текущий ожидаемый), поэтому из двух конкурирующих
// переходов зафиксируется ровно один.
func (s *TradeService) transition(c fiber.Ctx, next string) error {
	actorID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := loadTrade(ctx, tradeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeTradeNotFound, "Предложение обмена не найдено")
		}
		logger.Errorf("Ошибка запроса предложения обмена: %v", err)
		return utils.FailInternal(c)
	}

	if err := CanTransition(trade, next, actorID); err != nil {
		if err == ErrNotAuthorized {
			return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotAuthorized, "Вы не можете изменить статус этого обмена")
		}
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeStatus, "Обмен находится в статусе, не допускающем этот переход")
	}

	var query string
	if next == models.TradeStatusCompleted {
		query = `
            UPDATE trades SET status = $1, completed_at = NOW()
            WHERE id = $2 AND status = $3
        `
	} else {
		query = `
            UPDATE trades SET status = $1, responded_at = NOW()
            WHERE id = $2 AND status = $3
        `
	}

	tag, err := db.Pool.Exec(ctx, query, next, tradeID, requiredStatus(next))
	if err != nil {
		logger.Errorf("Ошибка обновления статуса предложения: %v", err)
		return utils.FailInternal(c)
	}

	// Ноль обновлённых строк — конкурирующий переход успел раньше
	if tag.RowsAffected() == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeStatus, "Статус обмена уже был изменён")
	}

	trade, err = loadTrade(ctx, tradeID)
	if err != nil {
		logger.Errorf("Ошибка перечитывания предложения обмена: %v", err)
		return utils.FailInternal(c)
	}

	s.hydrateTrade(ctx, trade)

	notificationType := map[string]string{
		models.TradeStatusAccepted:  models.NotificationTradeAccepted,
		models.TradeStatusDeclined:  models.NotificationTradeDeclined,
		models.TradeStatusCompleted: models.NotificationTradeCompleted,
	}[next]

	s.notifier.Send(trade.OtherParty(actorID), notificationType, map[string]interface{}{
		"trade_id": trade.ID,
		"status":   trade.Status,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"trade":   trade,
	})
}

// GetMyTrades возвращает список входящих и исходящих предложений обмена
func (s *TradeService) GetMyTrades(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Получаем тип предложений (входящие/исходящие/все)
	tradeType := c.Query("type", "all") // all, incoming, outgoing
	status := c.Query("status", "all")  // all, proposed, accepted, declined, completed

	query := `
        SELECT t.id, t.proposer_id, t.receiver_id, t.requested_book_id, t.offered_book_id,
               t.status, t.proposed_at, t.responded_at, t.completed_at
        FROM trades t
    `

	switch tradeType {
	case "incoming":
		query += ` WHERE t.receiver_id = $1`
	case "outgoing":
		query += ` WHERE t.proposer_id = $1`
	default:
		query += ` WHERE (t.proposer_id = $1 OR t.receiver_id = $1)`
	}

	args := []interface{}{userID}
	if status != "all" {
		query += ` AND t.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY t.proposed_at DESC`

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		logger.Errorf("Ошибка запроса предложений обмена: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		if err := rows.Scan(
			&trade.ID,
			&trade.ProposerID,
			&trade.ReceiverID,
			&trade.RequestedBookID,
			&trade.OfferedBookID,
			&trade.Status,
			&trade.ProposedAt,
			&trade.RespondedAt,
			&trade.CompletedAt,
		); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}

		s.hydrateTrade(ctx, &trade)
		trades = append(trades, trade)
	}

	return c.JSON(fiber.Map{
		"trades": trades,
		"count":  len(trades),
	})
}

// GetTrade возвращает одно предложение обмена, доступно только участникам
func (s *TradeService) GetTrade(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	tradeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	trade, err := loadTrade(ctx, tradeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeTradeNotFound, "Предложение обмена не найдено")
		}
		logger.Errorf("Ошибка запроса предложения обмена: %v", err)
		return utils.FailInternal(c)
	}

	if !trade.IsParty(userID) {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotAuthorized, "Вы не участвуете в этом обмене")
	}

	s.hydrateTrade(ctx, trade)

	return c.JSON(fiber.Map{
		"success": true,
		"trade":   trade,
	})
}

// loadTrade загружает предложение обмена по ID
func loadTrade(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	var trade models.Trade
	err := db.Pool.QueryRow(ctx, `
        SELECT id, proposer_id, receiver_id, requested_book_id, offered_book_id,
               status, proposed_at, responded_at, completed_at
        FROM trades
        WHERE id = $1
    `, tradeID).Scan(
		&trade.ID,
		&trade.ProposerID,
		&trade.ReceiverID,
		&trade.RequestedBookID,
		&trade.OfferedBookID,
		&trade.Status,
		&trade.ProposedAt,
		&trade.RespondedAt,
		&trade.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	return &trade, nil
}

// hydrateTrade загружает книги и участников для отображения
func (s *TradeService) hydrateTrade(ctx context.Context, trade *models.Trade) {
	trade.RequestedBook = getBookInfo(ctx, trade.RequestedBookID)
	trade.OfferedBook = getBookInfo(ctx, trade.OfferedBookID)
	trade.Proposer = db.GetUserInfo(ctx, trade.ProposerID)
	trade.Receiver = db.GetUserInfo(ctx, trade.ReceiverID)
}

// getBookInfo получает информацию о книге
func getBookInfo(ctx context.Context, bookID uuid.UUID) *models.Book {
	var book models.Book
	err := db.Pool.QueryRow(ctx, `
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
		logger.Errorf("Ошибка получения книги %s: %v", bookID, err)
		return nil
	}

	return &book
}
