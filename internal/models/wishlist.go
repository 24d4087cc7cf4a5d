package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem представляет запись списка желаемых книг
type WishlistItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WishlistMatch представляет доступную книгу, похожую на желаемую
type WishlistMatch struct {
	Item  WishlistItem `json:"item"`
	Book  Book         `json:"book"`
	Score float64      `json:"score"`
}
