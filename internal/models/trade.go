package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы обмена
const (
	TradeStatusProposed  = "proposed"
	TradeStatusAccepted  = "accepted"
	TradeStatusDeclined  = "declined"
	TradeStatusCompleted = "completed"
)

// Trade представляет предложение об обмене книгами
type Trade struct {
	ID              uuid.UUID  `json:"id"`
	ProposerID      uuid.UUID  `json:"proposer_id"`
	ReceiverID      uuid.UUID  `json:"receiver_id"`
	RequestedBookID uuid.UUID  `json:"requested_book_id"`
	OfferedBookID   uuid.UUID  `json:"offered_book_id"`
	Status          string     `json:"status"` // proposed, accepted, declined, completed
	ProposedAt      time.Time  `json:"proposed_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	// Дополнительные поля для API
	RequestedBook *Book `json:"requested_book,omitempty"`
	OfferedBook   *Book `json:"offered_book,omitempty"`
	Proposer      *User `json:"proposer,omitempty"`
	Receiver      *User `json:"receiver,omitempty"`
}

// IsParty проверяет, участвует ли пользователь в обмене
func (t *Trade) IsParty(userID uuid.UUID) bool {
	return t.ProposerID == userID || t.ReceiverID == userID
}

// OtherParty возвращает ID второго участника обмена
func (t *Trade) OtherParty(userID uuid.UUID) uuid.UUID {
	if t.ProposerID == userID {
		return t.ReceiverID
	}
	return t.ProposerID
}

// User представляет минимальную информацию о пользователе для API
type User struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}
