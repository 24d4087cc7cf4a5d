package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений
const (
	NotificationTradeProposed  = "trade_proposed"
	NotificationTradeAccepted  = "trade_accepted"
	NotificationTradeDeclined  = "trade_declined"
	NotificationTradeCompleted = "trade_completed"
	NotificationNewMessage     = "new_message"
	NotificationNewRating      = "new_rating"
)

// Notification представляет уведомление пользователя
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}
