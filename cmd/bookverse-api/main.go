package main

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/notify"
	"github.com/rajivgeraev/bookverse-api/internal/services/book"
	"github.com/rajivgeraev/bookverse-api/internal/services/message"
	"github.com/rajivgeraev/bookverse-api/internal/services/notification"
	"github.com/rajivgeraev/bookverse-api/internal/services/rating"
	"github.com/rajivgeraev/bookverse-api/internal/services/trade"
	"github.com/rajivgeraev/bookverse-api/internal/services/user"
	"github.com/rajivgeraev/bookverse-api/internal/services/wishlist"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, "info")
	defer logger.Sync()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		logger.Fatalf("Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Подключаемся к NATS для рассылки уведомлений
	notifier := notify.NewNotifier(cfg.NATSURL)
	defer notifier.Close()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "BookVerse API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Создаём сервисы и регистрируем маршруты
	book.NewBookService(cfg).SetupRoutes(app)
	user.NewUserService(cfg).SetupRoutes(app)
	trade.NewTradeService(cfg, notifier).SetupRoutes(app)
	rating.NewRatingService(cfg, notifier).SetupRoutes(app)
	message.NewMessageService(cfg, notifier).SetupRoutes(app)
	wishlist.NewWishlistService(cfg).SetupRoutes(app)
	notification.NewNotificationService(cfg).SetupRoutes(app)

	// Запускаем сервер
	logger.Infof("BookVerse API запущен на порту %s", cfg.Port)
	logger.Fatalf("%v", app.Listen(":"+cfg.Port))
}

// errorHandler обрабатывает ошибки Fiber, не дошедшие до обработчиков
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	switch code {
	case fiber.StatusInternalServerError:
		logger.Errorf("Необработанная ошибка: %v", err)
		return utils.FailInternal(c)
	case fiber.StatusNotFound:
		// Несуществующий маршрут — это не ошибка ввода
		return utils.Fail(c, code, utils.CodeNotFound, "Ресурс не найден")
	default:
		return utils.Fail(c, code, utils.CodeInvalidInput, err.Error())
	}
}
