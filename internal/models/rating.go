package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating представляет оценку, оставленную участником завершённого обмена
type Rating struct {
	ID          uuid.UUID `json:"id"`
	TradeID     uuid.UUID `json:"trade_id"`
	RaterID     uuid.UUID `json:"rater_id"`
	RatedUserID uuid.UUID `json:"rated_user_id"`
	Stars       int       `json:"stars"` // от 1 до 5
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Дополнительные поля для API
	Rater     *User  `json:"rater,omitempty"`
	RatedUser *User  `json:"rated_user,omitempty"`
	Trade     *Trade `json:"trade,omitempty"`
}
