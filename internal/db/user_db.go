package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// User представляет пользователя в системе
type User struct {
	ID            uuid.UUID
	Username      string
	FirstName     string
	LastName      string
	Email         string
	Bio           string
	Location      string
	AvatarURL     string
	AverageRating float64
	RatingCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetUserByID возвращает пользователя по его ID
func GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	err := Pool.QueryRow(ctx, `
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(email, ''), COALESCE(bio, ''), COALESCE(location, ''), COALESCE(avatar_url, ''),
		       average_rating, rating_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Bio,
		&user.Location,
		&user.AvatarURL,
		&user.AverageRating,
		&user.RatingCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	return &user, nil
}

// UpdateUserProfile обновляет редактируемые поля профиля пользователя
func UpdateUserProfile(ctx context.Context, userID uuid.UUID, username, firstName, lastName, bio, location, avatarURL string) error {
	_, err := Pool.Exec(ctx, `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, bio = $4, location = $5, avatar_url = $6,
		    updated_at = NOW()
		WHERE id = $7
	`, username, firstName, lastName, bio, location, avatarURL, userID)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении профиля: %w", err)
	}

	InvalidateUserInfo(userID)
	return nil
}

// UpdateUserRatingAggregate записывает пересчитанный агрегат рейтинга на запись пользователя.
// Выполняется внутри транзакции вставки оценки, чтобы вставка и агрегат были согласованы.
// Кэш карточки инвалидирует вызывающая сторона после коммита: инвалидация до коммита
// позволила бы закэшировать ещё не зафиксированный агрегат.
func UpdateUserRatingAggregate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, average float64, count int) error {
	_, err := tx.Exec(ctx, `
		UPDATE users
		SET average_rating = $1, rating_count = $2, updated_at = NOW()
		WHERE id = $3
	`, average, count, userID)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении агрегата рейтинга: %w", err)
	}

	return nil
}
