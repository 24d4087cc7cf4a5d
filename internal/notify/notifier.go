package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/rajivgeraev/bookverse-api/internal/db"
	"github.com/rajivgeraev/bookverse-api/internal/logger"
)

const (
	subjectPrefix = "bookverse.notifications."

	connectWait   = 5 * time.Second
	maxReconnects = 5
	reconnectWait = 2 * time.Second
)

// Notifier рассылает уведомления участникам обменов: пишет строку в таблицу
// notifications и публикует то же событие в NATS. Обе операции fire-and-forget,
// основная транзакция от них не зависит.
type Notifier struct {
	conn *nats.Conn
}

// NewNotifier создаёт Notifier. Без NATS_URL или при недоступном брокере
// уведомления продолжают писаться в базу, публикация отключается.
func NewNotifier(natsURL string) *Notifier {
	if natsURL == "" {
		logger.Warnf("NATS_URL не задан, публикация уведомлений отключена")
		return &Notifier{}
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("BookVerse API Notifier"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
	)
	if err != nil {
		logger.Errorf("Ошибка подключения к NATS %s: %v", natsURL, err)
		return &Notifier{}
	}

	return &Notifier{conn: conn}
}

// Close закрывает соединение с NATS
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

// Send создаёт уведомление для пользователя и публикует событие в NATS.
// Ошибки логируются и не возвращаются.
func (n *Notifier) Send(userID uuid.UUID, ntype string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("Ошибка сериализации уведомления %s: %v", ntype, err)
		return
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, payload)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), userID, ntype, data)

	if err != nil {
		logger.Errorf("Ошибка сохранения уведомления %s для %s: %v", ntype, userID, err)
	}

	if n.conn == nil {
		return
	}

	event := map[string]interface{}{
		"user_id": userID,
		"type":    ntype,
		"payload": payload,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("Ошибка сериализации события %s: %v", ntype, err)
		return
	}

	if err := n.conn.Publish(subjectPrefix+ntype, eventData); err != nil {
		logger.Warnf("Ошибка публикации уведомления %s в NATS: %v", ntype, err)
	}
}
