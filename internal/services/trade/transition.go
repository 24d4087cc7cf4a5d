package trade

import (
	"errors"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookverse-api/internal/models"
)

// Ошибки проверки перехода статуса
var (
	ErrNotAuthorized     = errors.New("пользователь не вправе выполнить этот переход")
	ErrInvalidTransition = errors.New("недопустимый переход статуса")
)

// CanTransition проверяет всю таблицу переходов жизненного цикла обмена в одном
// месте: из какого статуса в какой можно перейти и кто из участников вправе это
// сделать. proposed -> accepted|declined доступен только получателю,
// accepted -> completed — любому из участников. declined и completed терминальны,
// возврата в proposed нет.
func CanTransition(t *models.Trade, next string, actorID uuid.UUID) error {
	switch next {
	case models.TradeStatusAccepted, models.TradeStatusDeclined:
		if actorID != t.ReceiverID {
			return ErrNotAuthorized
		}
		if t.Status != models.TradeStatusProposed {
			return ErrInvalidTransition
		}
	case models.TradeStatusCompleted:
		if !t.IsParty(actorID) {
			return ErrNotAuthorized
		}
		if t.Status != models.TradeStatusAccepted {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}

	return nil
}

// requiredStatus возвращает статус, из которого разрешён переход в next.
// Используется в условных UPDATE, чтобы из двух конкурирующих переходов
// прошёл ровно один.
func requiredStatus(next string) string {
	if next == models.TradeStatusCompleted {
		return models.TradeStatusAccepted
	}
	return models.TradeStatusProposed
}
