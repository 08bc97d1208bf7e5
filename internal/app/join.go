package app

import (
	"context"
	"errors"
	"fmt"

	"callbreak/internal/domain"
	"callbreak/internal/ports"
	"callbreak/internal/scheduler"
	"callbreak/internal/store"

	"github.com/google/uuid"
)

// JoinResult tells the caller where it was seated.
type JoinResult struct {
	TableID string       `json:"table_id"`
	Seat    int          `json:"seat"`
	Phase   domain.Phase `json:"phase"`
}

// Join seats the user at the open table of the type, creating one when none
// is open. The fourth join starts the first deal and debits the stake.
func (s *Service) Join(ctx context.Context, userID, typeID string) (*JoinResult, error) {
	tt, ok := s.cfg.TableType(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTableType, typeID)
	}

	profile, err := s.profiles.GetPlayerProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("Join: profile lookup for %s failed: %v", userID, err)
		profile = ports.PlayerProfile{}
	}
	if tt.Stake > 0 {
		enough, err := s.economy.CheckBalance(ctx, userID, tt.Stake)
		if err != nil {
			return nil, fmt.Errorf("failed to check balance: %w", err)
		}
		if !enough {
			return nil, ErrInsufficientFunds
		}
	}

	x := &txn{}
	res, err := s.join(ctx, x, userID, tt, profile)
	if err != nil {
		return nil, wrapInternal("join table", err)
	}
	s.finish(ctx, x)
	return res, nil
}

func (s *Service) join(ctx context.Context, x *txn, userID string, tt domain.TableType, profile ports.PlayerProfile) (*JoinResult, error) {
	releaseUser, err := s.acquire(ctx, userLock(userID))
	defer releaseUser()
	if err != nil {
		return nil, err
	}

	seated, err := s.seatedElsewhere(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seated {
		return nil, ErrAlreadySeated
	}

	releaseType, err := s.acquire(ctx, typeLock(tt.ID))
	defer releaseType()
	if err != nil {
		return nil, err
	}

	t, releaseTable, err := s.openTable(ctx, tt)
	defer releaseTable()
	if err != nil {
		return nil, err
	}
	created := len(t.Players) == 0

	seat := domain.LowestAvailableSeat(t)
	t.Players = append(t.Players, &domain.Player{
		UserID: userID,
		Name:   profile.Name,
		Avatar: profile.Avatar,
		Seat:   seat,
		Active: true,
	})
	x.emit(EventJoined, JoinedPayload{TableID: t.ID, Seat: seat, UserID: userID, Players: seatInfos(t)}, activeRecipients(t))

	if t.IsFull() {
		domain.OrderSeats(t)
		if err := s.startDeal(x, t); err != nil {
			return nil, err
		}
		stake, users, tableID := tt.Stake, t.UserIDs(), t.ID
		if stake > 0 {
			x.afterCommit(func(ctx context.Context) {
				if err := s.economy.DebitJoinFee(ctx, users, stake, tableID); err != nil {
					s.logger.Error("Join: table %s debit join fee: %v", tableID, err)
				}
			})
		}
	}

	if err := s.store.StoreTable(ctx, t); err != nil {
		return nil, err
	}
	if err := s.store.SetUserActiveTable(ctx, userID, t.ID); err != nil {
		return nil, err
	}

	switch {
	case t.Phase != domain.PhaseWaiting:
		if err := s.store.ClearWaitingTable(ctx, tt.ID, t.ID); err != nil {
			return nil, err
		}
	case created:
		if err := s.store.SetWaitingTable(ctx, tt.ID, t.ID); err != nil {
			return nil, err
		}
		x.schedule(scheduler.Payload{TableID: t.ID, Action: scheduler.ActionExpireWaiting}, s.cfg.Timeouts.WaitingTimeout)
	}

	return &JoinResult{TableID: t.ID, Seat: seat, Phase: t.Phase}, nil
}

// openTable returns the locked waiting table for the type, or a new empty one.
func (s *Service) openTable(ctx context.Context, tt domain.TableType) (*domain.Table, func(), error) {
	if id, err := s.store.GetWaitingTable(ctx, tt.ID); err == nil {
		release, err := s.acquire(ctx, tableLock(id))
		if err != nil {
			return nil, release, err
		}
		t, err := s.store.LoadTable(ctx, id)
		if err == nil && t.Phase == domain.PhaseWaiting && !t.IsFull() {
			return t, release, nil
		}
		release()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, func() {}, err
		}
		s.logger.Warn("Join: waiting slot %s for %s is stale", id, tt.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, func() {}, err
	}

	t := &domain.Table{ID: uuid.NewString(), Type: tt, Phase: domain.PhaseWaiting}
	release, err := s.acquire(ctx, tableLock(t.ID))
	if err != nil {
		return nil, release, err
	}
	return t, release, nil
}

// seatedElsewhere reports whether the user index points at a live seat. An
// entry whose table is gone, finished, or no longer holds the user is
// released so the user can join again. Caller holds the user lock.
func (s *Service) seatedElsewhere(ctx context.Context, userID string) (bool, error) {
	tableID, err := s.store.GetUserActiveTable(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	t, err := s.store.LoadTable(ctx, tableID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if err == nil && t.Phase != domain.PhaseGameEnded {
		if p := t.PlayerByUser(userID); p != nil && !p.Left {
			return true, nil
		}
	}

	s.logger.Warn("Join: releasing stale index of %s to table %s", userID, tableID)
	if err := s.store.ReleaseUserActiveTable(ctx, tableID, userID); err != nil {
		return false, err
	}
	return false, nil
}
