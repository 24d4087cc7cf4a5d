package wishlist

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// MatchThreshold — минимальная похожесть названия, при которой книга
// считается совпадением с желаемой
const MatchThreshold = 0.75

// normalize приводит строку к нижнему регистру и схлопывает пробелы
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchScore возвращает похожесть двух названий от 0 до 1.
// Точное совпадение даёт 1, вхождение одной строки в другую 0.9,
// иначе похожесть считается по расстоянию Левенштейна.
func MatchScore(want, have string) float64 {
	w := normalize(want)
	h := normalize(have)

	if w == "" || h == "" {
		return 0
	}

	if w == h {
		return 1
	}

	if strings.Contains(h, w) || strings.Contains(w, h) {
		return 0.9
	}

	distance := levenshtein.ComputeDistance(w, h)
	longest := len([]rune(w))
	if l := len([]rune(h)); l > longest {
		longest = l
	}

	return 1 - float64(distance)/float64(longest)
}

// MatchesItem проверяет книгу против записи списка желаемого. Название
// сравнивается нечётко, автор (если указан в записи) должен совпасть
// хотя бы по вхождению.
func MatchesItem(wantTitle, wantAuthor, bookTitle, bookAuthor string) (float64, bool) {
	score := MatchScore(wantTitle, bookTitle)
	if score < MatchThreshold {
		return score, false
	}

	if wantAuthor != "" {
		wa := normalize(wantAuthor)
		ba := normalize(bookAuthor)
		if !strings.Contains(ba, wa) && MatchScore(wantAuthor, bookAuthor) < MatchThreshold {
			return score, false
		}
	}

	return score, true
}
