package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"callbreak/internal/bot"
	"callbreak/internal/config"
	"callbreak/internal/domain"
	"callbreak/internal/lock"
	"callbreak/internal/ports"
	"callbreak/internal/scheduler"
	"callbreak/internal/store"

	"github.com/heroiclabs/nakama-common/runtime"
)

// TableStore is the persistence the state machine needs.
type TableStore interface {
	LoadTable(ctx context.Context, id string) (*domain.Table, error)
	StoreTable(ctx context.Context, t *domain.Table) error
	DeleteTable(ctx context.Context, id string) error
	SetUserActiveTable(ctx context.Context, userID, tableID string) error
	GetUserActiveTable(ctx context.Context, userID string) (string, error)
	ReleaseUserActiveTable(ctx context.Context, tableID string, userIDs ...string) error
	GetWaitingTable(ctx context.Context, typeID string) (string, error)
	SetWaitingTable(ctx context.Context, typeID, tableID string) error
	ClearWaitingTable(ctx context.Context, typeID, tableID string) error
	ListTables(ctx context.Context) ([]string, error)
	ListIdle(ctx context.Context, before time.Time) ([]string, error)
}

// Locker grants named leases.
type Locker interface {
	Acquire(ctx context.Context, name string) (*lock.Lease, error)
	Release(ctx context.Context, lease *lock.Lease) error
}

// Timers arms fenced timeouts.
type Timers interface {
	Schedule(p scheduler.Payload, delay time.Duration)
}

// Deps bundles the collaborators of a Service.
type Deps struct {
	Store    TableStore
	Locks    Locker
	Timers   Timers
	Economy  ports.EconomyPort
	Profiles ports.ProfilePort
	History  ports.HistoryPort
	Notifier ports.NotifierPort
	Brain    bot.Brain
	Config   *config.GameConfig
	Logger   runtime.Logger
	Rng      *rand.Rand
	Now      func() time.Time
}

// Service is the table state machine. Every mutation runs under the table lock.
type Service struct {
	store    TableStore
	locks    Locker
	timers   Timers
	economy  ports.EconomyPort
	profiles ports.ProfilePort
	history  ports.HistoryPort
	notifier ports.NotifierPort
	brain    bot.Brain
	cfg      *config.GameConfig
	logger   runtime.Logger
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService constructs a Service. Rng, Now and Brain default when nil.
func NewService(d Deps) *Service {
	if d.Rng == nil {
		d.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Brain == nil {
		d.Brain = bot.FallbackBrain{}
	}
	return &Service{
		store:    d.Store,
		locks:    d.Locks,
		timers:   d.Timers,
		economy:  d.Economy,
		profiles: d.Profiles,
		history:  d.History,
		notifier: d.Notifier,
		brain:    d.Brain,
		cfg:      d.Config,
		logger:   d.Logger,
		now:      d.Now,
		rng:      d.Rng,
	}
}

func userLock(userID string) string  { return "user:" + userID }
func tableLock(tableID string) string { return "table:" + tableID }
func typeLock(typeID string) string   { return "type:" + typeID }

type pendingTimer struct {
	payload scheduler.Payload
	delay   time.Duration
}

// txn collects the side effects of one locked section. They run only after
// the locks are released.
type txn struct {
	events []Event
	timers []pendingTimer
	after  []func(ctx context.Context)
}

func (x *txn) emit(kind EventKind, payload any, recipients []string) {
	if len(recipients) == 0 {
		return
	}
	x.events = append(x.events, Event{Kind: kind, Payload: payload, Recipients: recipients})
}

func (x *txn) schedule(p scheduler.Payload, delay time.Duration) {
	x.timers = append(x.timers, pendingTimer{payload: p, delay: delay})
}

func (x *txn) afterCommit(f func(ctx context.Context)) {
	x.after = append(x.after, f)
}

// acquire takes the named locks in order. The returned func releases them in
// the same order and must be deferred by the caller.
func (s *Service) acquire(ctx context.Context, names ...string) (func(), error) {
	leases := make([]*lock.Lease, 0, len(names))
	release := func() {
		rctx := context.WithoutCancel(ctx)
		for _, l := range leases {
			if err := s.locks.Release(rctx, l); err != nil {
				s.logger.Warn("Lock release %s failed: %v", l.Key, err)
			}
		}
	}
	for _, name := range names {
		l, err := s.locks.Acquire(ctx, name)
		if err != nil {
			release()
			return func() {}, err
		}
		leases = append(leases, l)
	}
	return release, nil
}

// finish dispatches what a committed txn produced.
func (s *Service) finish(ctx context.Context, x *txn) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range x.events {
		if s.notifier == nil {
			break
		}
		if err := s.notifier.Notify(ctx, ev.Recipients, string(ev.Kind), ev.Payload); err != nil {
			s.logger.Warn("Notify %s failed: %v", ev.Kind, err)
		}
	}
	for _, t := range x.timers {
		s.timers.Schedule(t.payload, t.delay)
	}
	for _, f := range x.after {
		f(ctx)
	}
}

// withTable runs fn on the user's active table under user and table locks.
func (s *Service) withTable(ctx context.Context, userID string, fn func(x *txn, t *domain.Table, p *domain.Player) (bool, error)) error {
	tableID, err := s.store.GetUserActiveTable(ctx, userID)
	if err != nil {
		return notFound(err, ErrNoActiveTable)
	}

	x := &txn{}
	err = func() error {
		release, err := s.acquire(ctx, userLock(userID), tableLock(tableID))
		defer release()
		if err != nil {
			return err
		}

		t, err := s.store.LoadTable(ctx, tableID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("Table %s of %s is gone, releasing index", tableID, userID)
			if err := s.store.ReleaseUserActiveTable(ctx, tableID, userID); err != nil {
				return err
			}
			return ErrTableNotFound
		}
		if err != nil {
			return err
		}
		p := t.PlayerByUser(userID)
		if p == nil {
			return ErrNotSeated
		}

		dirty, err := fn(x, t, p)
		if err != nil {
			return err
		}
		if dirty {
			if err := s.store.StoreTable(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}()
	if err != nil {
		return err
	}
	s.finish(ctx, x)
	return nil
}

func (s *Service) shuffleDeal() ([domain.SeatCount][]domain.Card, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return domain.DealHands(domain.NewDeck(), s.rng)
}

func activeRecipients(t *domain.Table) []string {
	out := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Active {
			out = append(out, p.UserID)
		}
	}
	return out
}

func othersActive(t *domain.Table, userID string) []string {
	out := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Active && p.UserID != userID {
			out = append(out, p.UserID)
		}
	}
	return out
}

func seatInfos(t *domain.Table) []SeatInfo {
	out := make([]SeatInfo, 0, len(t.Players))
	for _, p := range t.Players {
		out = append(out, SeatInfo{Seat: p.Seat, UserID: p.UserID, Name: p.Name, Avatar: p.Avatar, Active: p.Active})
	}
	return out
}

// stillSeated returns users whose index still points at this table.
func stillSeated(t *domain.Table) []string {
	out := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		if !p.Left {
			out = append(out, p.UserID)
		}
	}
	return out
}

func turnAction(phase domain.Phase) (scheduler.Action, bool) {
	switch phase {
	case domain.PhaseBidding:
		return scheduler.ActionBid, true
	case domain.PhasePlaying:
		return scheduler.ActionPlay, true
	}
	return "", false
}

// armTurn sets the deadline of the seat to move, announces the turn and
// schedules its timeout. Absent seats get the short auto-play delay.
func (s *Service) armTurn(x *txn, t *domain.Table) {
	action, ok := turnAction(t.Phase)
	if !ok {
		return
	}
	p := t.PlayerAt(t.CurrentTurn)
	if p == nil {
		return
	}

	delay := s.cfg.Timeouts.PlayTimeout
	if action == scheduler.ActionBid {
		delay = s.cfg.Timeouts.BidTimeout
	}
	if !p.Active {
		delay = s.cfg.Timeouts.AutoPlayDelay
	}
	p.Deadline = s.now().Add(delay)

	if action == scheduler.ActionBid {
		x.emit(EventBidTurn, BidTurnPayload{Seat: p.Seat, TimeoutMs: delay.Milliseconds()}, activeRecipients(t))
	} else {
		x.emit(EventTurnToPlay, TurnToPlayPayload{Seat: p.Seat, TimeoutMs: delay.Milliseconds()}, othersActive(t, p.UserID))
		if p.Active {
			x.emit(EventTurnToPlay, TurnToPlayPayload{
				Seat:       p.Seat,
				LegalCards: domain.LegalMoves(t, p.Seat),
				TimeoutMs:  delay.Milliseconds(),
			}, []string{p.UserID})
		}
	}

	x.schedule(scheduler.Payload{
		TableID:   t.ID,
		Action:    action,
		DealIndex: t.DealIndex,
		MoveCount: t.MoveCount,
	}, delay)
}

// armForced schedules an immediate fallback for an absent seat that holds the turn.
func (s *Service) armForced(x *txn, t *domain.Table, seat int) {
	action, ok := turnAction(t.Phase)
	if !ok || t.CurrentTurn != seat {
		return
	}
	x.schedule(scheduler.Payload{
		TableID:   t.ID,
		Action:    action,
		DealIndex: t.DealIndex,
		MoveCount: t.MoveCount,
		Forced:    true,
	}, s.cfg.Timeouts.AutoPlayDelay)
}

func (s *Service) deleteTable(ctx context.Context, tableID string) {
	release, err := s.acquire(ctx, tableLock(tableID))
	defer release()
	if err != nil {
		s.logger.Error("DeleteTable: table %s lock failed: %v", tableID, err)
		return
	}
	if err := s.store.DeleteTable(ctx, tableID); err != nil {
		s.logger.Error("DeleteTable: table %s: %v", tableID, err)
	}
}

func wrapInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrConflict) || errors.Is(err, ErrBusy) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
