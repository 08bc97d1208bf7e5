package app

import (
	"context"
	"errors"

	"callbreak/internal/domain"
)

// Leave removes the caller from a waiting table, or forfeits their seat once
// play has started. The game ends when a single active seat remains.
func (s *Service) Leave(ctx context.Context, userID string) error {
	err := s.withTable(ctx, userID, func(x *txn, t *domain.Table, p *domain.Player) (bool, error) {
		switch {
		case t.Phase == domain.PhaseWaiting:
			return s.leaveWaiting(ctx, x, t, p)
		case t.InPlay():
			p.Active = false
			p.Left = true
			if err := s.store.ReleaseUserActiveTable(ctx, t.ID, p.UserID); err != nil {
				return false, err
			}
			x.emit(EventPlayerLeft, PlayerLeftPayload{Seat: p.Seat, UserID: p.UserID}, activeRecipients(t))

			if len(t.ActivePlayers()) == 1 {
				s.endGame(x, t, true)
			} else {
				s.armForced(x, t, p.Seat)
			}
			return true, nil
		}
		return false, ErrWrongPhase
	})
	return wrapInternal("leave table", err)
}

// leaveWaiting drops the seat. A table left empty is deleted along with its slot.
func (s *Service) leaveWaiting(ctx context.Context, x *txn, t *domain.Table, p *domain.Player) (bool, error) {
	domain.RemovePlayer(t, p.UserID)
	if err := s.store.ReleaseUserActiveTable(ctx, t.ID, p.UserID); err != nil {
		return false, err
	}
	if len(t.Players) == 0 {
		if err := s.store.DeleteTable(ctx, t.ID); err != nil {
			return false, err
		}
		return false, s.store.ClearWaitingTable(ctx, t.Type.ID, t.ID)
	}
	x.emit(EventPlayerLeft, PlayerLeftPayload{Seat: p.Seat, UserID: p.UserID}, activeRecipients(t))
	return true, nil
}

// Disconnect marks the user's seat as absent after their session ends. A
// waiting seat is given up instead.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	err := s.withTable(ctx, userID, func(x *txn, t *domain.Table, p *domain.Player) (bool, error) {
		if t.Phase == domain.PhaseWaiting {
			return s.leaveWaiting(ctx, x, t, p)
		}
		if !t.InPlay() || !p.Active {
			return false, nil
		}
		p.Active = false
		x.emit(EventPlayerOffline, PresencePayload{Seat: p.Seat, UserID: p.UserID}, activeRecipients(t))
		s.armForced(x, t, p.Seat)
		return true, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return wrapInternal("mark disconnect", err)
}
