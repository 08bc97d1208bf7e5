package app

import (
	"context"

	"callbreak/internal/domain"
	"callbreak/internal/scheduler"
)

// TableView is one player's picture of their table.
type TableView struct {
	Table      *domain.Table `json:"table"`
	Seat       int           `json:"seat"`
	LegalMoves []domain.Card `json:"legal_moves,omitempty"`
	TimeoutMs  int64         `json:"timeout_ms"`
}

// View returns the caller's table with other hands hidden, reactivating the
// seat if the caller had disconnected.
func (s *Service) View(ctx context.Context, userID string) (*TableView, error) {
	var view *TableView
	err := s.withTable(ctx, userID, func(x *txn, t *domain.Table, p *domain.Player) (bool, error) {
		dirty := false
		if !p.Active && !p.Left && t.InPlay() {
			p.Active = true
			dirty = true
			x.emit(EventPlayerReconnected, PresencePayload{Seat: p.Seat, UserID: p.UserID}, othersActive(t, p.UserID))
			if _, ok := turnAction(t.Phase); ok && t.CurrentTurn == p.Seat {
				s.rearm(x, t, p)
			}
		}
		view = s.buildView(t, p)
		return dirty, nil
	})
	if err != nil {
		return nil, wrapInternal("view table", err)
	}
	return view, nil
}

// rearm gives a returning seat a fresh deadline for the pending turn.
func (s *Service) rearm(x *txn, t *domain.Table, p *domain.Player) {
	action, _ := turnAction(t.Phase)
	delay := s.cfg.Timeouts.PlayTimeout
	if action == scheduler.ActionBid {
		delay = s.cfg.Timeouts.BidTimeout
	}
	p.Deadline = s.now().Add(delay)
	x.schedule(scheduler.Payload{
		TableID:   t.ID,
		Action:    action,
		DealIndex: t.DealIndex,
		MoveCount: t.MoveCount,
	}, delay)
}

// buildView hides every other hand once cards exist, from RoundStarted on.
func (s *Service) buildView(t *domain.Table, p *domain.Player) *TableView {
	c := t.Clone()
	if c.Phase != domain.PhaseWaiting {
		for _, other := range c.Players {
			if other.UserID != p.UserID {
				other.Hand = nil
			}
		}
	}

	view := &TableView{Table: c, Seat: p.Seat}
	if t.Phase == domain.PhasePlaying && t.CurrentTurn == p.Seat {
		view.LegalMoves = domain.LegalMoves(t, p.Seat)
	}
	if _, ok := turnAction(t.Phase); ok && t.CurrentTurn == p.Seat {
		if left := p.Deadline.Sub(s.now()); left > 0 {
			view.TimeoutMs = left.Milliseconds()
		}
	}
	return view
}

// ScoreboardView is the score summary of a table.
type ScoreboardView struct {
	TableID   string            `json:"table_id"`
	Phase     domain.Phase      `json:"phase"`
	DealIndex int               `json:"deal_index"`
	Deals     int               `json:"deals"`
	Rows      []domain.ScoreRow `json:"rows"`
}

// Scoreboard reads the caller's table scores without taking locks.
func (s *Service) Scoreboard(ctx context.Context, userID string) (*ScoreboardView, error) {
	tableID, err := s.store.GetUserActiveTable(ctx, userID)
	if err != nil {
		return nil, wrapInternal("read scoreboard", notFound(err, ErrNoActiveTable))
	}
	t, err := s.store.LoadTable(ctx, tableID)
	if err != nil {
		return nil, wrapInternal("read scoreboard", notFound(err, ErrTableNotFound))
	}
	return &ScoreboardView{
		TableID:   t.ID,
		Phase:     t.Phase,
		DealIndex: t.DealIndex,
		Deals:     t.Type.Deals,
		Rows:      domain.Scoreboard(t),
	}, nil
}
