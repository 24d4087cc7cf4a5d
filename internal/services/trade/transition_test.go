package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/bookverse-api/internal/models"
)

func TestCanTransition(t *testing.T) {
	proposerID := uuid.New()
	receiverID := uuid.New()
	strangerID := uuid.New()

	makeTrade := func(status string) *models.Trade {
		return &models.Trade{
			ID:         uuid.New(),
			ProposerID: proposerID,
			ReceiverID: receiverID,
			Status:     status,
		}
	}

	tests := []struct {
		name    string
		from    string
		next    string
		actorID uuid.UUID
		wantErr error
	}{
		{"receiver accepts proposed", models.TradeStatusProposed, models.TradeStatusAccepted, receiverID, nil},
		{"receiver declines proposed", models.TradeStatusProposed, models.TradeStatusDeclined, receiverID, nil},
		{"proposer cannot accept", models.TradeStatusProposed, models.TradeStatusAccepted, proposerID, ErrNotAuthorized},
		{"proposer cannot decline", models.TradeStatusProposed, models.TradeStatusDeclined, proposerID, ErrNotAuthorized},
		{"stranger cannot accept", models.TradeStatusProposed, models.TradeStatusAccepted, strangerID, ErrNotAuthorized},
		{"proposer completes accepted", models.TradeStatusAccepted, models.TradeStatusCompleted, proposerID, nil},
		{"receiver completes accepted", models.TradeStatusAccepted, models.TradeStatusCompleted, receiverID, nil},
		{"stranger cannot complete", models.TradeStatusAccepted, models.TradeStatusCompleted, strangerID, ErrNotAuthorized},
		{"cannot complete proposed", models.TradeStatusProposed, models.TradeStatusCompleted, proposerID, ErrInvalidTransition},
		{"cannot accept accepted", models.TradeStatusAccepted, models.TradeStatusAccepted, receiverID, ErrInvalidTransition},
		{"declined is terminal for accept", models.TradeStatusDeclined, models.TradeStatusAccepted, receiverID, ErrInvalidTransition},
		{"declined is terminal for complete", models.TradeStatusDeclined, models.TradeStatusCompleted, receiverID, ErrInvalidTransition},
		{"completed is terminal", models.TradeStatusCompleted, models.TradeStatusCompleted, receiverID, ErrInvalidTransition},
		{"no transition back to proposed", models.TradeStatusAccepted, models.TradeStatusProposed, receiverID, ErrInvalidTransition},
		{"unknown status rejected", models.TradeStatusProposed, "canceled", receiverID, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(makeTrade(tt.from), tt.next, tt.actorID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// Авторизация проверяется раньше статуса: посторонний получает
// ErrNotAuthorized даже на терминальном обмене
func TestCanTransitionAuthorizationCheckedFirst(t *testing.T) {
	trade := &models.Trade{
		ID:         uuid.New(),
		ProposerID: uuid.New(),
		ReceiverID: uuid.New(),
		Status:     models.TradeStatusCompleted,
	}

	err := CanTransition(trade, models.TradeStatusAccepted, uuid.New())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRequiredStatus(t *testing.T) {
	assert.Equal(t, models.TradeStatusProposed, requiredStatus(models.TradeStatusAccepted))
	assert.Equal(t, models.TradeStatusProposed, requiredStatus(models.TradeStatusDeclined))
	assert.Equal(t, models.TradeStatusAccepted, requiredStatus(models.TradeStatusCompleted))
}
