package rating

import (
	"strings"

	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

// ComputeAggregate вычисляет средний рейтинг и количество оценок по полному
// набору оценок пользователя. Пересчёт всегда идёт от полного набора, а не
// инкрементально, чтобы агрегат не накапливал расхождение.
func ComputeAggregate(stars []int) (float64, int) {
	if len(stars) == 0 {
		return 0, 0
	}

	sum := 0
	for _, s := range stars {
		sum += s
	}

	return float64(sum) / float64(len(stars)), len(stars)
}

// checkStarsAndComment валидирует звёзды и комментарий. Возвращает обрезанный
// комментарий и код ошибки, пустой код означает успех. Комментарий обязателен
// при оценке не выше трёх звёзд.
func checkStarsAndComment(stars *int, comment string) (string, string) {
	if stars == nil {
		return "", utils.CodeMissingStars
	}

	if *stars < 1 || *stars > 5 {
		return "", utils.CodeInvalidStars
	}

	trimmed := strings.TrimSpace(comment)
	if *stars <= 3 && trimmed == "" {
		return "", utils.CodeCommentRequired
	}

	return trimmed, ""
}
