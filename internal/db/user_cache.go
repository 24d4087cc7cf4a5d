package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/rajivgeraev/bookverse-api/internal/logger"
	"github.com/rajivgeraev/bookverse-api/internal/models"
)

// Кэш публичных карточек пользователей. Списки обменов и сообщений
// подгружают одних и тех же участников на каждую строку, поэтому
// держим их в памяти пять минут.
var userCache = ttlcache.New(
	ttlcache.WithTTL[uuid.UUID, *models.User](5 * time.Minute),
)

func startUserCache() {
	go userCache.Start()
}

func stopUserCache() {
	userCache.Stop()
}

// GetUserInfo возвращает публичную карточку пользователя для гидрации ответов API
func GetUserInfo(ctx context.Context, userID uuid.UUID) *models.User {
	if item := userCache.Get(userID); item != nil {
		return item.Value()
	}

	var user models.User
	err := Pool.QueryRow(ctx, `
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(avatar_url, ''), average_rating, rating_count
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.AvatarURL,
		&user.AverageRating,
		&user.RatingCount,
	)

	if err != nil {
		logger.Errorf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}

	userCache.Set(userID, &user, ttlcache.DefaultTTL)
	return &user
}

// InvalidateUserInfo сбрасывает кэшированную карточку после изменения профиля или рейтинга
func InvalidateUserInfo(userID uuid.UUID) {
	userCache.Delete(userID)
}
