package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"callbreak/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// StorageModule writes Nakama storage objects.
type StorageModule interface {
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

type historyRecord struct {
	TableID string                `json:"table_id"`
	Players []ports.HistoryPlayer `json:"players"`
	Result  ports.GameResult      `json:"result"`
}

// NakamaHistoryAdapter stores one history object per player of a finished game.
type NakamaHistoryAdapter struct {
	nk StorageModule
}

// NewNakamaHistoryAdapter creates a new history adapter.
func NewNakamaHistoryAdapter(nk StorageModule) *NakamaHistoryAdapter {
	return &NakamaHistoryAdapter{nk: nk}
}

// RecordGameHistory writes the game record into each player's storage, keyed by table id.
func (a *NakamaHistoryAdapter) RecordGameHistory(ctx context.Context, tableID string, players []ports.HistoryPlayer, result ports.GameResult) error {
	if tableID == "" {
		return fmt.Errorf("tableID is required")
	}
	value, err := json.Marshal(historyRecord{TableID: tableID, Players: players, Result: result})
	if err != nil {
		return fmt.Errorf("failed to marshal game history: %w", err)
	}

	writes := make([]*runtime.StorageWrite, 0, len(players))
	for _, p := range players {
		writes = append(writes, &runtime.StorageWrite{
			Collection:      historyCollection,
			Key:             tableID,
			UserID:          p.UserID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}
	if len(writes) == 0 {
		return nil
	}

	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to write game history: %w", err)
	}
	return nil
}

var _ ports.HistoryPort = (*NakamaHistoryAdapter)(nil)
