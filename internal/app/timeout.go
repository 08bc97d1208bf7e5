package app

import (
	"context"
	"errors"

	"callbreak/internal/domain"
	"callbreak/internal/scheduler"
	"callbreak/internal/store"
)

// HandleTimeout applies a fired timer under the table lock. Missing tables
// and stale timers are no-ops; lock contention is returned as ErrBusy so the
// scheduler can retry.
func (s *Service) HandleTimeout(ctx context.Context, p scheduler.Payload) error {
	x := &txn{}
	err := func() error {
		release, err := s.acquire(ctx, tableLock(p.TableID))
		defer release()
		if err != nil {
			return err
		}

		t, err := s.store.LoadTable(ctx, p.TableID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !p.Relevant(t) {
			s.logger.Debug("Timeout: table %s %s stale", t.ID, p.Action)
			return nil
		}

		var dirty bool
		switch p.Action {
		case scheduler.ActionExpireWaiting:
			return s.expireWaiting(ctx, x, t)
		case scheduler.ActionStartBidding:
			s.beginBidding(x, t)
			dirty = true
		case scheduler.ActionBid, scheduler.ActionPlay:
			dirty = s.autoMove(x, t, p)
		case scheduler.ActionNextRound:
			if err := s.startDeal(x, t); err != nil {
				return err
			}
			dirty = true
		default:
			s.logger.Warn("Timeout: table %s unknown action %q", t.ID, p.Action)
		}

		if !dirty {
			return nil
		}
		return s.store.StoreTable(ctx, t)
	}()
	if err != nil {
		return err
	}
	s.finish(ctx, x)
	return nil
}

// autoMove plays the fallback move for the seat to act. A present seat whose
// deadline has not passed keeps its turn.
func (s *Service) autoMove(x *txn, t *domain.Table, p scheduler.Payload) bool {
	seat := t.CurrentTurn
	pl := t.PlayerAt(seat)
	if pl == nil {
		return false
	}
	if pl.Active {
		if p.Forced && t.MoveCount != p.MoveCount {
			return false
		}
		if s.now().Before(pl.Deadline) {
			return false
		}
	}

	switch t.Phase {
	case domain.PhaseBidding:
		bid := s.brain.Bid(t, seat)
		s.logger.Debug("Timeout: table %s seat %d auto bid %d", t.ID, seat, bid)
		s.applyBid(x, t, seat, bid, true)
	case domain.PhasePlaying:
		card := s.brain.Card(t, seat)
		s.logger.Debug("Timeout: table %s seat %d auto card %s%d", t.ID, seat, card.Suit, card.Rank)
		s.applyPlay(x, t, seat, card, true)
	default:
		return false
	}
	return true
}

// expireWaiting deletes a table that never filled.
func (s *Service) expireWaiting(ctx context.Context, x *txn, t *domain.Table) error {
	users := t.UserIDs()
	if err := s.store.DeleteTable(ctx, t.ID); err != nil {
		return err
	}
	if err := s.store.ClearWaitingTable(ctx, t.Type.ID, t.ID); err != nil {
		return err
	}
	if err := s.store.ReleaseUserActiveTable(ctx, t.ID, users...); err != nil {
		return err
	}
	s.logger.Info("Timeout: waiting table %s expired with %d players", t.ID, len(users))
	x.emit(EventTableExpired, TableExpiredPayload{TableID: t.ID}, users)
	return nil
}
