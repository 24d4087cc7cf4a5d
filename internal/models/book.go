package models

import (
	"time"

	"github.com/google/uuid"
)

// Book представляет книгу, выставленную пользователем на обмен
type Book struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Condition   string    `json:"condition"` // New, Like New, Good, Fair, Poor
	Genre       string    `json:"genre,omitempty"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Owner *User `json:"owner,omitempty"`
}

// Допустимые состояния книги
var validConditions = map[string]bool{
	"New":      true,
	"Like New": true,
	"Good":     true,
	"Fair":     true,
	"Poor":     true,
}

// IsValidCondition проверяет, что состояние книги входит в допустимый набор
func IsValidCondition(condition string) bool {
	return validConditions[condition]
}
