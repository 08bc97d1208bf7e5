package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"callbreak/internal/app"
	"callbreak/internal/ports"
)

// NotificationModule sends Nakama notifications.
type NotificationModule interface {
	NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error
}

var eventCodes = map[app.EventKind]int{
	app.EventJoined:            CodeJoined,
	app.EventRoundStarted:      CodeRoundStarted,
	app.EventCardsDealt:        CodeCardsDealt,
	app.EventBidTurn:           CodeBidTurn,
	app.EventBidResult:         CodeBidResult,
	app.EventTurnToPlay:        CodeTurnToPlay,
	app.EventCardPlayed:        CodeCardPlayed,
	app.EventTrickWon:          CodeTrickWon,
	app.EventRoundEnded:        CodeRoundEnded,
	app.EventGameEnded:         CodeGameEnded,
	app.EventPlayerLeft:        CodePlayerLeft,
	app.EventTableExpired:      CodeTableExpired,
	app.EventPlayerOffline:     CodePlayerOffline,
	app.EventPlayerReconnected: CodePlayerReconnected,
	app.EventTableCleared:      CodeTableCleared,
}

// NakamaNotifier delivers table events as non-persistent Nakama notifications.
// The subject is the event kind and the content its JSON payload.
type NakamaNotifier struct {
	nk NotificationModule
}

// NewNakamaNotifier creates a new notifier.
func NewNakamaNotifier(nk NotificationModule) *NakamaNotifier {
	return &NakamaNotifier{nk: nk}
}

// Notify sends the event to each recipient. Delivery continues past a failed recipient.
func (n *NakamaNotifier) Notify(ctx context.Context, recipients []string, kind string, payload interface{}) error {
	code, ok := eventCodes[app.EventKind(kind)]
	if !ok {
		return fmt.Errorf("unknown event kind %q", kind)
	}
	content, err := eventContent(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	var errs []error
	for _, userID := range recipients {
		if err := n.nk.NotificationSend(ctx, userID, kind, content, code, "", false); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// eventContent converts a payload struct into the map form notifications carry.
func eventContent(payload interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

var _ ports.NotifierPort = (*NakamaNotifier)(nil)
