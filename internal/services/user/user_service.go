package user

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookverse-api/internal/config"
	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// UserService представляет сервис для работы с профилями пользователей
type UserService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewUserService создает новый экземпляр UserService
func NewUserService(cfg *config.Config) *UserService {
	return &UserService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMe возвращает полный профиль текущего пользователя
func (s *UserService) GetMe(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		logger.Errorf("%v", err)
		return utils.FailInternal(c)
	}

	if user == nil {
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeUserNotFound, "Пользователь не найден")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":             user.ID,
			"username":       user.Username,
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"email":          user.Email,
			"bio":            user.Bio,
			"location":       user.Location,
			"avatar_url":     user.AvatarURL,
			"average_rating": user.AverageRating,
			"rating_count":   user.RatingCount,
			"created_at":     user.CreatedAt,
		},
	})
}

// UpdateMe обновляет профиль текущего пользователя
func (s *UserService) UpdateMe(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Locals("userID").(string))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	var requestData struct {
		Username  *string `json:"username"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
		Location  *string `json:"location"`
		AvatarURL *string `json:"avatar_url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат данных")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		logger.Errorf("%v", err)
		return utils.FailInternal(c)
	}

	if user == nil {
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeUserNotFound, "Пользователь не найден")
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&user.Username, requestData.Username)
	apply(&user.FirstName, requestData.FirstName)
	apply(&user.LastName, requestData.LastName)
	apply(&user.Bio, requestData.Bio)
	apply(&user.Location, requestData.Location)
	apply(&user.AvatarURL, requestData.AvatarURL)

	err = db.UpdateUserProfile(ctx, userID, user.Username, user.FirstName, user.LastName, user.Bio, user.Location, user.AvatarURL)
	if err != nil {
		logger.Errorf("%v", err)
		return utils.FailInternal(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Профиль обновлён",
	})
}

// GetUser возвращает публичный профиль пользователя без приватных полей
func (s *UserService) GetUser(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, utils.CodeInvalidInput, "Неверный формат ID пользователя")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		logger.Errorf("%v", err)
		return utils.FailInternal(c)
	}

	if user == nil {
		return utils.Fail(c, fiber.StatusNotFound, utils.CodeUserNotFound, "Пользователь не найден")
	}

	// Email в публичный профиль не попадает
	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":             user.ID,
			"username":       user.Username,
			"first_name":     user.FirstName,
			"last_name":      user.LastName,
			"bio":            user.Bio,
			"location":       user.Location,
			"avatar_url":     user.AvatarURL,
			"average_rating": user.AverageRating,
			"rating_count":   user.RatingCount,
			"created_at":     user.CreatedAt,
		},
	})
}
