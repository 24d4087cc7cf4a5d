package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name string
		want string
		have string
		min  float64
		max  float64
	}{
		{"exact match", "Мастер и Маргарита", "Мастер и Маргарита", 1, 1},
		{"case insensitive", "мастер и маргарита", "МАСТЕР И МАРГАРИТА", 1, 1},
		{"extra spaces collapsed", "Мастер  и   Маргарита", "Мастер и Маргарита", 1, 1},
		{"substring", "Маргарита", "Мастер и Маргарита", 0.9, 0.9},
		{"one typo stays close", "Мастер и Маргорита", "Мастер и Маргарита", 0.9, 1},
		{"unrelated titles", "Война и мир", "Преступление и наказание", 0, 0.5},
		{"empty want", "", "Мастер и Маргарита", 0, 0},
		{"empty have", "Мастер и Маргарита", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := MatchScore(tt.want, tt.have)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestMatchesItem(t *testing.T) {
	t.Run("title match without author", func(t *testing.T) {
		score, ok := MatchesItem("Мастер и Маргарита", "", "Мастер и Маргарита", "Булгаков")
		assert.True(t, ok)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("title match with matching author", func(t *testing.T) {
		_, ok := MatchesItem("Мастер и Маргарита", "Булгаков", "Мастер и Маргарита", "Михаил Булгаков")
		assert.True(t, ok)
	})

	t.Run("title match with wrong author", func(t *testing.T) {
		_, ok := MatchesItem("Мастер и Маргарита", "Толстой", "Мастер и Маргарита", "Михаил Булгаков")
		assert.False(t, ok)
	})

	t.Run("title below threshold", func(t *testing.T) {
		_, ok := MatchesItem("Война и мир", "", "Преступление и наказание", "Достоевский")
		assert.False(t, ok)
	})

	t.Run("typo in title still matches", func(t *testing.T) {
		_, ok := MatchesItem("Мастер и Маргорита", "", "Мастер и Маргарита", "Булгаков")
		assert.True(t, ok)
	})
}
