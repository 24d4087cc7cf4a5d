package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/notify"
	"github.com/rajivgeraev/bookverse-api/internal/services/message"
	"github.com/rajivgeraev/bookverse-api/internal/services/rating"
	"github.com/rajivgeraev/bookverse-api/internal/services/trade"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

const testJWTSecret = "integration-test-secret"

var (
	testApp        *fiber.App
	testJWTService *utils.JWTService
)

// TestMain поднимает PostgreSQL в контейнере, применяет схему и собирает
// приложение с маршрутами обменов, оценок и сообщений.
func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Не удалось создать dockertest pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Docker недоступен: %s", err)
	}

	pgResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=bookverse_test",
			"POSTGRES_PASSWORD=bookverse_test",
			"POSTGRES_DB=bookverse_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Не удалось запустить контейнер PostgreSQL: %s", err)
	}

	databaseURL := fmt.Sprintf(
		"postgres://bookverse_test:bookverse_test@%s/bookverse_test?sslmode=disable",
		pgResource.GetHostPort("5432/tcp"),
	)

	cfg := &config.Config{
		JWTSecret:   testJWTSecret,
		DatabaseURL: databaseURL,
		DatabaseConfig: config.DatabaseConfig{
			Name: "bookverse_test",
		},
	}

	if err := pool.Retry(func() error {
		return db.InitDB(cfg)
	}); err != nil {
		log.Fatalf("Не удалось подключиться к PostgreSQL: %s", err)
	}

	if err := applyMigrations("../../migrations/001_init.sql"); err != nil {
		log.Fatalf("Не удалось применить схему: %s", err)
	}

	testJWTService = utils.NewJWTService(testJWTSecret)

	// NATS_URL пустой: уведомления пишутся только в базу
	notifier := notify.NewNotifier("")

	testApp = fiber.New()
	trade.NewTradeService(cfg, notifier).SetupRoutes(testApp)
	rating.NewRatingService(cfg, notifier).SetupRoutes(testApp)
	message.NewMessageService(cfg, notifier).SetupRoutes(testApp)

	code := m.Run()

	db.CloseDB()
	if err := pool.Purge(pgResource); err != nil {
		log.Fatalf("Не удалось удалить контейнер PostgreSQL: %s", err)
	}
	os.Exit(code)
}

// applyMigrations выполняет файл схемы по одному statement,
// pgx не пропускает несколько statement в одном Exec
func applyMigrations(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	for _, stmt := range strings.Split(string(raw), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func clearTables(t *testing.T) {
	t.Helper()

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE ratings, messages, trades, wishlist_items, notifications, books, users CASCADE
	`)
	require.NoError(t, err)
}

func seedUser(t *testing.T) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, username) VALUES ($1, $2)
	`, userID, "user_"+userID.String()[:8])
	require.NoError(t, err)

	token, err := testJWTService.GenerateToken(userID.String())
	require.NoError(t, err)

	return userID, token
}

func seedBook(t *testing.T, ownerID uuid.UUID, title string) uuid.UUID {
	t.Helper()

	bookID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO books (id, owner_id, title, author, condition)
		VALUES ($1, $2, $3, 'Автор', 'Good')
	`, bookID, ownerID, title)
	require.NoError(t, err)

	return bookID
}

type apiResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Trade struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	} `json:"trade"`
	Rating struct {
		ID    uuid.UUID `json:"id"`
		Stars int       `json:"stars"`
	} `json:"rating"`
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := testApp.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))

	return resp.StatusCode, parsed
}

// proposeTrade создаёт предложение обмена через API и возвращает его ID
func proposeTrade(t *testing.T, proposerToken string, requestedBookID, offeredBookID uuid.UUID) uuid.UUID {
	t.Helper()

	status, resp := doJSON(t, http.MethodPost, "/trades", proposerToken, map[string]string{
		"requestedBook": requestedBookID.String(),
		"offeredBook":   offeredBookID.String(),
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "proposed", resp.Trade.Status)

	return resp.Trade.ID
}

// completedTrade проводит обмен через весь жизненный цикл до completed
func completedTrade(t *testing.T, proposerToken, receiverToken string, requestedBookID, offeredBookID uuid.UUID) uuid.UUID {
	t.Helper()

	tradeID := proposeTrade(t, proposerToken, requestedBookID, offeredBookID)

	status, _ := doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/accept", receiverToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/complete", proposerToken, nil)
	require.Equal(t, http.StatusOK, status)

	return tradeID
}

func userAggregate(t *testing.T, userID uuid.UUID) (float64, int) {
	t.Helper()

	ctx, cancel := db.GetContext()
	defer cancel()

	var average float64
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT average_rating, rating_count FROM users WHERE id = $1
	`, userID).Scan(&average, &count)
	require.NoError(t, err)

	return average, count
}

func TestTradeLifecycle(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, receiverToken := seedUser(t)
	requestedBookID := seedBook(t, receiverID, "Мастер и Маргарита")
	offeredBookID := seedBook(t, proposerID, "Война и мир")

	tradeID := proposeTrade(t, proposerToken, requestedBookID, offeredBookID)

	// Инициатор не может принять собственное предложение
	status, resp := doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/accept", proposerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, utils.CodeNotAuthorized, resp.Error.Code)

	status, resp = doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/accept", receiverToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "accepted", resp.Trade.Status)

	status, resp = doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/complete", proposerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", resp.Trade.Status)

	// Завершённый обмен терминален
	status, resp = doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/complete", receiverToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.CodeInvalidTradeStatus, resp.Error.Code)
}

// Два конкурирующих перехода по одному предложению: условный UPDATE
// пропускает ровно одного
func TestTradeConcurrentTransitionOneWinner(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, receiverToken := seedUser(t)
	requestedBookID := seedBook(t, receiverID, "Идиот")
	offeredBookID := seedBook(t, proposerID, "Обломов")

	tradeID := proposeTrade(t, proposerToken, requestedBookID, offeredBookID)

	paths := []string{
		"/trades/" + tradeID.String() + "/accept",
		"/trades/" + tradeID.String() + "/decline",
	}

	statuses := make([]int, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			status, _ := doJSON(t, http.MethodPut, path, receiverToken, nil)
			statuses[i] = status
		}(i, path)
	}
	wg.Wait()

	winners := 0
	for _, status := range statuses {
		switch status {
		case http.StatusOK:
			winners++
		case http.StatusBadRequest:
			// проигравший получает конфликт статуса
		default:
			t.Fatalf("неожиданный статус ответа: %d", status)
		}
	}
	assert.Equal(t, 1, winners)

	// В базе статус либо accepted, либо declined, но не proposed
	ctx, cancel := db.GetContext()
	defer cancel()

	var tradeStatus string
	require.NoError(t, db.Pool.QueryRow(ctx, `
		SELECT status FROM trades WHERE id = $1
	`, tradeID).Scan(&tradeStatus))
	assert.Contains(t, []string{"accepted", "declined"}, tradeStatus)
}

func TestRatingDuplicateRejected(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, receiverToken := seedUser(t)
	requestedBookID := seedBook(t, receiverID, "Три товарища")
	offeredBookID := seedBook(t, proposerID, "Процесс")

	tradeID := completedTrade(t, proposerToken, receiverToken, requestedBookID, offeredBookID)

	status, resp := doJSON(t, http.MethodPost, "/ratings", proposerToken, map[string]interface{}{
		"trade": tradeID.String(),
		"stars": 5,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 5, resp.Rating.Stars)

	// Повторная оценка того же обмена тем же участником — конфликт,
	// независимо от количества звёзд
	status, resp = doJSON(t, http.MethodPost, "/ratings", proposerToken, map[string]interface{}{
		"trade":   tradeID.String(),
		"stars":   3,
		"comment": "передумал",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, utils.CodeDuplicateRating, resp.Error.Code)

	// Агрегат учитывает ровно одну оценку
	average, count := userAggregate(t, receiverID)
	assert.InDelta(t, 5.0, average, 1e-9)
	assert.Equal(t, 1, count)
}

// Конкурирующие оценки одного и того же пользователя по разным обменам:
// блокировка строки users сериализует пересчёты, обе оценки попадают в агрегат
func TestRatingConcurrentAggregateRecompute(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, receiverToken := seedUser(t)

	tradeA := completedTrade(t, proposerToken, receiverToken,
		seedBook(t, receiverID, "Анна Каренина"), seedBook(t, proposerID, "Замок"))
	tradeB := completedTrade(t, proposerToken, receiverToken,
		seedBook(t, receiverID, "Вишнёвый сад"), seedBook(t, proposerID, "Чайка"))

	// Оба обмена оценивает инициатор, оцениваемый в обоих случаях получатель
	submissions := []map[string]interface{}{
		{"trade": tradeA.String(), "stars": 5},
		{"trade": tradeB.String(), "stars": 3, "comment": "долго договаривались"},
	}

	statuses := make([]int, len(submissions))
	var wg sync.WaitGroup
	for i, body := range submissions {
		wg.Add(1)
		go func(i int, body map[string]interface{}) {
			defer wg.Done()
			status, _ := doJSON(t, http.MethodPost, "/ratings", proposerToken, body)
			statuses[i] = status
		}(i, body)
	}
	wg.Wait()

	for _, status := range statuses {
		require.Equal(t, http.StatusCreated, status)
	}

	// Обе оценки учтены: среднее по {5,3}, счётчик 2
	average, count := userAggregate(t, receiverID)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 4.0, average, 1e-9)
}

func TestRatingRequiresCompletedTrade(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, _ := seedUser(t)
	requestedBookID := seedBook(t, receiverID, "Дар")
	offeredBookID := seedBook(t, proposerID, "Защита Лужина")

	tradeID := proposeTrade(t, proposerToken, requestedBookID, offeredBookID)

	status, resp := doJSON(t, http.MethodPost, "/ratings", proposerToken, map[string]interface{}{
		"trade": tradeID.String(),
		"stars": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.CodeTradeNotCompleted, resp.Error.Code)
}

func TestMessageGatedByTradeStatus(t *testing.T) {
	clearTables(t)

	proposerID, proposerToken := seedUser(t)
	receiverID, receiverToken := seedUser(t)
	_, strangerToken := seedUser(t)
	requestedBookID := seedBook(t, receiverID, "Доктор Живаго")
	offeredBookID := seedBook(t, proposerID, "Тихий Дон")

	tradeID := proposeTrade(t, proposerToken, requestedBookID, offeredBookID)

	// По непринятому обмену переписка закрыта
	status, resp := doJSON(t, http.MethodPost, "/messages", proposerToken, map[string]string{
		"trade":   tradeID.String(),
		"content": "Договоримся о встрече?",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.CodeInvalidTradeStatus, resp.Error.Code)

	acceptStatus, _ := doJSON(t, http.MethodPut, "/trades/"+tradeID.String()+"/accept", receiverToken, nil)
	require.Equal(t, http.StatusOK, acceptStatus)

	// Посторонний не участник: ошибка авторизации, а не статуса
	status, resp = doJSON(t, http.MethodPost, "/messages", strangerToken, map[string]string{
		"trade":   tradeID.String(),
		"content": "А меня возьмёте?",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, utils.CodeNotAuthorized, resp.Error.Code)

	status, _ = doJSON(t, http.MethodPost, "/messages", proposerToken, map[string]string{
		"trade":   tradeID.String(),
		"content": "Договоримся о встрече?",
	})
	assert.Equal(t, http.StatusCreated, status)
}
