package app

import (
	"context"
	"time"

	"callbreak/internal/domain"
	"callbreak/internal/ports"
	"callbreak/internal/scheduler"
)

// startDeal deals the next hand and moves the table to RoundStarted.
func (s *Service) startDeal(x *txn, t *domain.Table) error {
	hands, err := s.shuffleDeal()
	if err != nil {
		return err
	}

	t.DealIndex++
	if t.DealIndex == 1 {
		t.DealerSeat = 0
	} else {
		t.DealerSeat = domain.NextSeat(t.DealerSeat)
	}
	t.Phase = domain.PhaseRoundStarted
	t.DealInRound = 1
	t.MoveCount = 0
	t.CurrentTurn = domain.NextSeat(t.DealerSeat)
	domain.ClearTrick(t)

	for _, p := range t.Players {
		p.HandBid = 0
		p.TricksWon = 0
		p.Hand = domain.ToHand(hands[p.Seat])
		p.Deadline = time.Time{}
	}

	x.emit(EventRoundStarted, RoundStartedPayload{
		TableID:    t.ID,
		DealIndex:  t.DealIndex,
		Deals:      t.Type.Deals,
		DealerSeat: t.DealerSeat,
		Players:    seatInfos(t),
	}, activeRecipients(t))

	untilBid := s.cfg.Timeouts.StartDelay + s.cfg.Timeouts.BidTimeout
	for _, p := range t.Players {
		if !p.Active {
			continue
		}
		x.emit(EventCardsDealt, CardsDealtPayload{Hand: p.Remaining(), TimeoutMs: untilBid.Milliseconds()}, []string{p.UserID})
	}

	x.schedule(scheduler.Payload{
		TableID:   t.ID,
		Action:    scheduler.ActionStartBidding,
		DealIndex: t.DealIndex,
	}, s.cfg.Timeouts.StartDelay)
	return nil
}

// beginBidding opens bidding at the seat after the dealer.
func (s *Service) beginBidding(x *txn, t *domain.Table) {
	t.Phase = domain.PhaseBidding
	t.CurrentTurn = domain.NextSeat(t.DealerSeat)
	s.armTurn(x, t)
}

// applyBid records a validated bid and advances the turn.
func (s *Service) applyBid(x *txn, t *domain.Table, seat, value int, auto bool) {
	p := t.PlayerAt(seat)
	p.HandBid = value
	p.Deadline = s.now()
	t.MoveCount++
	x.emit(EventBidResult, BidResultPayload{Seat: seat, Bid: value, Auto: auto}, activeRecipients(t))

	for _, pl := range t.Players {
		if pl.HandBid == 0 {
			t.CurrentTurn = domain.NextSeat(seat)
			s.armTurn(x, t)
			return
		}
	}

	t.Phase = domain.PhasePlaying
	t.CurrentTurn = domain.NextSeat(t.DealerSeat)
	s.armTurn(x, t)
}

// applyPlay records a validated card, resolves completed tricks and ends the
// deal after the last trick.
func (s *Service) applyPlay(x *txn, t *domain.Table, seat int, card domain.Card, auto bool) {
	p := t.PlayerAt(seat)
	p.MarkPlayed(card)
	p.Deadline = s.now()
	domain.RecordPlay(t, seat, card)
	t.MoveCount++
	x.emit(EventCardPlayed, CardPlayedPayload{Seat: seat, Card: card, Auto: auto}, activeRecipients(t))

	if len(t.Trick) < domain.SeatCount {
		t.CurrentTurn = domain.NextSeat(seat)
		s.armTurn(x, t)
		return
	}

	winner := domain.TrickWinner(t.Trick)
	wp := t.PlayerAt(winner)
	wp.TricksWon++
	x.emit(EventTrickWon, TrickWonPayload{
		Seat:      winner,
		Cards:     append([]domain.TrickCard(nil), t.Trick...),
		TricksWon: wp.TricksWon,
	}, activeRecipients(t))
	domain.ClearTrick(t)

	if t.DealInRound >= domain.TricksPerDeal {
		s.endDeal(x, t)
		return
	}
	t.DealInRound++
	t.CurrentTurn = winner
	s.armTurn(x, t)
}

// endDeal scores the deal and either schedules the next one or ends the game.
func (s *Service) endDeal(x *txn, t *domain.Table) {
	domain.ScoreDeal(t)
	t.Phase = domain.PhaseRoundEnded
	x.emit(EventRoundEnded, RoundEndedPayload{DealIndex: t.DealIndex, Scoreboard: domain.Scoreboard(t)}, activeRecipients(t))

	if t.DealIndex >= t.Type.Deals {
		s.endGame(x, t, false)
		return
	}
	x.schedule(scheduler.Payload{
		TableID:   t.ID,
		Action:    scheduler.ActionNextRound,
		DealIndex: t.DealIndex,
	}, s.cfg.Timeouts.RoundEndDelay)
}

// endGame finalises the table. Settlement, history and deletion run after commit.
func (s *Service) endGame(x *txn, t *domain.Table, forfeit bool) {
	seats, each := domain.GameWinners(t)
	t.Phase = domain.PhaseGameEnded

	winners := make([]Winning, 0, len(seats))
	winnerIDs := make([]string, 0, len(seats))
	won := make(map[int]int64, len(seats))
	for _, seat := range seats {
		p := t.PlayerAt(seat)
		winners = append(winners, Winning{Seat: seat, UserID: p.UserID, Amount: each})
		winnerIDs = append(winnerIDs, p.UserID)
		won[seat] = each
	}
	x.emit(EventGameEnded, GameEndedPayload{Winners: winners, Scoreboard: domain.Scoreboard(t), Forfeit: forfeit}, activeRecipients(t))

	history := make([]ports.HistoryPlayer, 0, len(t.Players))
	for _, p := range t.Players {
		history = append(history, ports.HistoryPlayer{
			UserID:      p.UserID,
			Name:        p.Name,
			Seat:        p.Seat,
			Left:        p.Left,
			RoundScores: p.RoundScores,
			TotalScore:  p.TotalScore,
			Winnings:    won[p.Seat],
		})
	}
	result := ports.GameResult{
		TypeID:      t.Type.ID,
		DealsPlayed: t.DealIndex,
		WinnerSeats: seats,
		PrizeEach:   each,
		Forfeit:     forfeit,
		EndedAt:     s.now().Unix(),
	}
	seated := stillSeated(t)
	tableID := t.ID

	x.afterCommit(func(ctx context.Context) {
		if err := s.store.ReleaseUserActiveTable(ctx, tableID, seated...); err != nil {
			s.logger.Error("EndGame: table %s clear user index: %v", tableID, err)
		}
		if each > 0 && len(winnerIDs) > 0 {
			if err := s.economy.CreditWinnings(ctx, winnerIDs, each, tableID); err != nil {
				s.logger.Error("EndGame: table %s credit winnings: %v", tableID, err)
			}
		}
		if s.history != nil {
			if err := s.history.RecordGameHistory(ctx, tableID, history, result); err != nil {
				s.logger.Error("EndGame: table %s record history: %v", tableID, err)
			}
		}
		s.deleteTable(ctx, tableID)
	})
}
