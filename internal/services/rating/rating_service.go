package rating

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
	"github.com/rajivgeraev/bookverse-api/internal/notify"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// RatingService представляет сервис для работы с оценками участников обменов
type RatingService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	notifier   *notify.Notifier
}

// NewRatingService создает новый экземпляр RatingService
func NewRatingService(cfg *config.Config, notifier *notify.Notifier) *RatingService {
	return &RatingService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		notifier:   notifier,
	}
}

// SubmitRating создает оценку по завершённому обмену и пересчитывает
// агрегат рейтинга оценённого пользователя
func (s *RatingService) SubmitRating(c fiber.Ctx) error {
	raterID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Trade   string `json:"trade"`
		Stars   *int   `json:"stars"`
		Comment string `json:"comment"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	comment, errCode := checkStarsAndComment(requestData.Stars, requestData.Comment)
	switch errCode {
	case utils.CodeMissingStars:
		return utils.Fail(c, fiber.StatusBadRequest, errCode, "Не указана оценка")
	case utils.CodeInvalidStars:
		return utils.Fail(c, fiber.StatusBadRequest, errCode, "Оценка должна быть целым числом от 1 до 5")
	case utils.CodeCommentRequired:
		return utils.Fail(c, fiber.StatusBadRequest, errCode, "При оценке не выше трёх звёзд комментарий обязателен")
	}

	tradeID, err := uuid.Parse(requestData.Trade)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Загружаем обмен
	var trade models.Trade
	err = db.Pool.QueryRow(ctx, `
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
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeTradeNotFound, "Обмен не найден")
		}
		logger.Errorf("Ошибка запроса обмена: %v", err)
		return utils.FailInternal(c)
	}

	if trade.Status != models.TradeStatusCompleted {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeTradeNotCompleted, "Оценить можно только завершённый обмен")
	}

	if !trade.IsParty(raterID) {
		return utils.Fail(c, fiber.StatusForbidden, utils.CodeNotAuthorized, "Вы не участвовали в этом обмене")
	}

	// Быстрая проверка на повторную оценку. Авторитетна уникальность
	// (trade_id, rater_id) в базе, здесь только понятная ошибка без гонки с вставкой.
	var alreadyRated bool
	err = db.Pool.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM ratings WHERE trade_id = $1 AND rater_id = $2)
    `, tradeID, raterID).Scan(&alreadyRated)

	if err != nil {
		logger.Errorf("Ошибка проверки существующей оценки: %v", err)
		return utils.FailInternal(c)
	}

	if alreadyRated {
		return utils.Fail(c, fiber.StatusConflict, utils.CodeDuplicateRating, "Вы уже оценили этот обмен")
	}

	// Оценивается второй участник обмена, клиент его не передаёт
	ratedUserID := trade.OtherParty(raterID)

	rating := models.Rating{
		ID:          uuid.New(),
		TradeID:     tradeID,
		RaterID:     raterID,
		RatedUserID: ratedUserID,
		Stars:       *requestData.Stars,
		Comment:     comment,
	}

	// Вставка оценки и пересчёт агрегата идут в одной транзакции
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		logger.Errorf("Ошибка начала транзакции: %v", err)
		return utils.FailInternal(c)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку оцениваемого пользователя до чтения его оценок.
	// Без этого два параллельных пересчёта читают оценки до коммита друг
	// друга и второй записывает агрегат без строки первого.
	_, err = tx.Exec(ctx, `
        SELECT 1 FROM users WHERE id = $1 FOR UPDATE
    `, ratedUserID)

	if err != nil {
		logger.Errorf("Ошибка блокировки строки пользователя: %v", err)
		return utils.FailInternal(c)
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO ratings (id, trade_id, rater_id, rated_user_id, stars, comment)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at
    `, rating.ID, rating.TradeID, rating.RaterID, rating.RatedUserID, rating.Stars, rating.Comment).Scan(&rating.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Конкурирующая вставка успела раньше
			return utils.Fail(c, fiber.StatusConflict, utils.CodeDuplicateRating, "Вы уже оценили этот обмен")
		}
		logger.Errorf("Ошибка создания оценки: %v", err)
		return utils.FailInternal(c)
	}

	// Полный пересчёт по всем оценкам пользователя, уже с учётом новой строки
	rows, err := tx.Query(ctx, `
        SELECT stars FROM ratings WHERE rated_user_id = $1
    `, ratedUserID)

	if err != nil {
		logger.Errorf("Ошибка чтения оценок для пересчёта: %v", err)
		return utils.FailInternal(c)
	}

	var allStars []int
	for rows.Next() {
		var stars int
		if err := rows.Scan(&stars); err != nil {
			rows.Close()
			logger.Errorf("Ошибка сканирования строки: %v", err)
			return utils.FailInternal(c)
		}
		allStars = append(allStars, stars)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		logger.Errorf("Ошибка чтения оценок для пересчёта: %v", err)
		return utils.FailInternal(c)
	}

	average, count := ComputeAggregate(allStars)
	if err := db.UpdateUserRatingAggregate(ctx, tx, ratedUserID, average, count); err != nil {
		logger.Errorf("%v", err)
		return utils.FailInternal(c)
	}

	if err = tx.Commit(ctx); err != nil {
		logger.Errorf("Ошибка фиксации транзакции: %v", err)
		return utils.FailInternal(c)
	}

	// Кэш сбрасывается только после коммита, иначе параллельное чтение
	// успело бы закэшировать старый агрегат на весь TTL
	db.InvalidateUserInfo(ratedUserID)

	s.hydrateRating(ctx, &rating)
	rating.Trade = &trade

	s.notifier.Send(ratedUserID, models.NotificationNewRating, map[string]interface{}{
		"trade_id": tradeID,
		"rater_id": raterID,
		"stars":    rating.Stars,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"rating":  rating,
	})
}

// GetRatingForTrade возвращает оценку текущего пользователя по обмену.
// Каждый участник видит только свою оценку, не оценку второй стороны.
func (s *RatingService) GetRatingForTrade(c fiber.Ctx) error {
	raterID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	tradeID, err := uuid.Parse(c.Params("tradeId"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidTradeID, "Неверный формат ID обмена")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var rating models.Rating
	err = db.Pool.QueryRow(ctx, `
        SELECT id, trade_id, rater_id, rated_user_id, stars, comment, created_at
        FROM ratings
        WHERE trade_id = $1 AND rater_id = $2
    `, tradeID, raterID).Scan(
		&rating.ID,
		&rating.TradeID,
		&rating.RaterID,
		&rating.RatedUserID,
		&rating.Stars,
		&rating.Comment,
		&rating.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return utils.Fail(c, fiber.StatusNotFound, utils.CodeRatingNotFound, "Оценка не найдена")
		}
		logger.Errorf("Ошибка запроса оценки: %v", err)
		return utils.FailInternal(c)
	}

	s.hydrateRating(ctx, &rating)

	return c.JSON(fiber.Map{
		"success": true,
		"rating":  rating,
	})
}

// GetUserRatings возвращает оценки, полученные пользователем, для его профиля
func (s *RatingService) GetUserRatings(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
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

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT id, trade_id, rater_id, rated_user_id, stars, comment, created_at
        FROM ratings
        WHERE rated_user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, userID, limit, offset)

	if err != nil {
		logger.Errorf("Ошибка запроса оценок пользователя: %v", err)
		return utils.FailInternal(c)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.TradeID,
			&rating.RaterID,
			&rating.RatedUserID,
			&rating.Stars,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			logger.Errorf("Ошибка сканирования строки: %v", err)
			continue
		}

		rating.Rater = db.GetUserInfo(ctx, rating.RaterID)
		ratings = append(ratings, rating)
	}

	return c.JSON(fiber.Map{
		"ratings": ratings,
		"count":   len(ratings),
		"limit":   limit,
		"offset":  offset,
	})
}

// hydrateRating загружает участников для отображения оценки
func (s *RatingService) hydrateRating(ctx context.Context, rating *models.Rating) {
	rating.Rater = db.GetUserInfo(ctx, rating.RaterID)
	rating.RatedUser = db.GetUserInfo(ctx, rating.RatedUserID)
}
