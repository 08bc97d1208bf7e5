package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callbreak/internal/domain"
	"callbreak/internal/store"
)

// ListTables summarises every live table, least recently updated first.
func (s *Service) ListTables(ctx context.Context) ([]domain.Summary, error) {
	ids, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Summary, 0, len(ids))
	for _, id := range ids {
		t, err := s.store.LoadTable(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Summarize(t))
	}
	return out, nil
}

// InspectTable returns the full state of a table, hands included.
func (s *Service) InspectTable(ctx context.Context, tableID string) (*domain.Table, error) {
	t, err := s.store.LoadTable(ctx, tableID)
	if err != nil {
		return nil, wrapInternal("inspect table", notFound(err, ErrTableNotFound))
	}
	return t, nil
}

// ForceClear deletes a table. Players still seated at a started table get
// their stake back.
func (s *Service) ForceClear(ctx context.Context, tableID, reason string) error {
	x := &txn{}
	err := func() error {
		release, err := s.acquire(ctx, tableLock(tableID))
		defer release()
		if err != nil {
			return err
		}

		t, err := s.store.LoadTable(ctx, tableID)
		if err != nil {
			return notFound(err, ErrTableNotFound)
		}

		seated := stillSeated(t)
		var refund int64
		if t.InPlay() && t.Type.Stake > 0 {
			refund = t.Type.Stake
		}

		if err := s.store.DeleteTable(ctx, t.ID); err != nil {
			return err
		}
		if err := s.store.ClearWaitingTable(ctx, t.Type.ID, t.ID); err != nil {
			return err
		}
		if err := s.store.ReleaseUserActiveTable(ctx, t.ID, t.UserIDs()...); err != nil {
			return err
		}

		s.logger.Info("ForceClear: table %s phase %s cleared (%s), refund %d to %d players", t.ID, t.Phase, reason, refund, len(seated))
		x.emit(EventTableCleared, TableClearedPayload{TableID: t.ID, Reason: reason, Refund: refund}, activeRecipients(t))
		if refund > 0 && len(seated) > 0 {
			x.afterCommit(func(ctx context.Context) {
				if err := s.economy.CreditWinnings(ctx, seated, refund, tableID); err != nil {
					s.logger.Error("ForceClear: table %s refund: %v", tableID, err)
				}
			})
		}
		return nil
	}()
	if err != nil {
		return wrapInternal("clear table", err)
	}
	s.finish(ctx, x)
	return nil
}

// ClearStuckTables force-clears every table idle for longer than olderThan
// and returns the ids it cleared. Busy tables are skipped.
func (s *Service) ClearStuckTables(ctx context.Context, olderThan time.Duration) ([]string, error) {
	ids, err := s.store.ListIdle(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	cleared := make([]string, 0, len(ids))
	for _, id := range ids {
		err := s.ForceClear(ctx, id, "stuck")
		switch {
		case err == nil:
			cleared = append(cleared, id)
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrBusy):
			s.logger.Debug("ClearStuckTables: skip %s: %v", id, err)
		default:
			return cleared, fmt.Errorf("failed to clear stuck table %s: %w", id, err)
		}
	}
	return cleared, nil
}

// RunStuckSweeper clears stuck tables every interval until ctx is done.
func (s *Service) RunStuckSweeper(ctx context.Context, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared, err := s.ClearStuckTables(ctx, threshold)
			if err != nil {
				s.logger.Error("StuckSweeper: %v", err)
			}
			if len(cleared) > 0 {
				s.logger.Info("StuckSweeper: cleared %d tables", len(cleared))
			}
		}
	}
}
