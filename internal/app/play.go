package app

import (
	"context"

	"callbreak/internal/domain"
)

// Bid records the caller's bid for the current deal.
func (s *Service) Bid(ctx context.Context, userID string, value int) error {
	if value < domain.MinBid || value > domain.MaxBid {
		return ErrInvalidBid
	}
	err := s.withTable(ctx, userID, func(x *txn, t *domain.Table, p *domain.Player) (bool, error) {
		if t.Phase != domain.PhaseBidding {
			return false, ErrWrongPhase
		}
		if t.CurrentTurn != p.Seat {
			return false, ErrNotYourTurn
		}
		if p.HandBid != 0 {
			return false, ErrAlreadyBid
		}
		s.applyBid(x, t, p.Seat, value, false)
		return true, nil
	})
	if err != nil {
		s.logger.Debug("Bid: user %s bid %d rejected: %v", userID, value, err)
	}
	return wrapInternal("bid", err)
}

// PlayCard plays a card from the caller's hand onto the current trick.
func (s *Service) PlayCard(ctx context.Context, userID string, card domain.Card) error {
	if !domain.ValidCard(card) {
		return ErrInvalidCard
	}
	err := s.withTable(ctx, userID, func(x *txn, t *domain.Table, p *domain.Player) (bool, error) {
		if t.Phase != domain.PhasePlaying {
			return false, ErrWrongPhase
		}
		if t.CurrentTurn != p.Seat {
			return false, ErrNotYourTurn
		}
		if !p.Holds(card) {
			return false, ErrCardNotHeld
		}
		if !domain.IsLegal(t, p.Seat, card) {
			return false, ErrIllegalCard
		}
		s.applyPlay(x, t, p.Seat, card, false)
		return true, nil
	})
	if err != nil {
		s.logger.Debug("PlayCard: user %s card %s%d rejected: %v", userID, card.Suit, card.Rank, err)
	}
	return wrapInternal("play card", err)
}
