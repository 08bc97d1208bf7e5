package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"callbreak/internal/domain"
	"callbreak/internal/lock"
	"callbreak/internal/store"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Action names the state transition a timer drives.
type Action string

const (
	ActionExpireWaiting Action = "expire_waiting"
	ActionStartBidding  Action = "start_bidding"
	ActionBid           Action = "bid"
	ActionPlay          Action = "play"
	ActionNextRound     Action = "next_round"
)

// Payload identifies the table state a timer was armed for.
type Payload struct {
	TableID   string `json:"table_id"`
	Action    Action `json:"action"`
	DealIndex int    `json:"deal_index"`
	MoveCount int    `json:"move_count"`

	// Forced timers act for an inactive current seat regardless of the move fence.
	Forced  bool `json:"forced"`
	Attempt int  `json:"attempt"`
}

// Relevant reports whether the table is still in the state the timer was armed for.
func (p Payload) Relevant(t *domain.Table) bool {
	switch p.Action {
	case ActionExpireWaiting:
		return t.Phase == domain.PhaseWaiting
	case ActionStartBidding:
		return t.Phase == domain.PhaseRoundStarted && t.DealIndex == p.DealIndex
	case ActionNextRound:
		return t.Phase == domain.PhaseRoundEnded && t.DealIndex == p.DealIndex
	case ActionBid:
		return t.Phase == domain.PhaseBidding && p.fenced(t)
	case ActionPlay:
		return t.Phase == domain.PhasePlaying && p.fenced(t)
	}
	return false
}

func (p Payload) fenced(t *domain.Table) bool {
	if t.DealIndex != p.DealIndex {
		return false
	}
	return p.Forced || t.MoveCount == p.MoveCount
}

// Handler applies a timeout. Returning lock.ErrBusy re-arms the timer.
type Handler func(ctx context.Context, p Payload) error

// Loader reads the current table snapshot.
type Loader interface {
	LoadTable(ctx context.Context, id string) (*domain.Table, error)
}

// Options tunes retries of busy callbacks.
type Options struct {
	RetryDelay      time.Duration
	MaxRetries      int
	CallbackTimeout time.Duration
}

// Scheduler runs delayed table callbacks in process.
type Scheduler struct {
	loader Loader
	logger runtime.Logger
	opts   Options

	mu      sync.Mutex
	handler Handler
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool
	running sync.WaitGroup
}

// New creates a scheduler. Bind must be called before timers fire.
func New(loader Loader, logger runtime.Logger, opts Options) *Scheduler {
	if opts.CallbackTimeout <= 0 {
		opts.CallbackTimeout = 10 * time.Second
	}
	return &Scheduler{
		loader: loader,
		logger: logger,
		opts:   opts,
		timers: make(map[uint64]*time.Timer),
	}
}

// Bind sets the callback invoked for relevant timers.
func (s *Scheduler) Bind(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Schedule arms a timer that fires after delay.
func (s *Scheduler) Schedule(p Payload, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id, p) })
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels armed timers and waits for running callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.running.Wait()
}

func (s *Scheduler) fire(id uint64, p Payload) {
	s.mu.Lock()
	delete(s.timers, id)
	if s.stopped || s.handler == nil {
		s.mu.Unlock()
		return
	}
	h := s.handler
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.CallbackTimeout)
	defer cancel()

	t, err := s.loader.LoadTable(ctx, p.TableID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("Timer %s for table %s: table gone", p.Action, p.TableID)
		return
	}
	if err != nil {
		s.logger.Warn("Timer %s for table %s: load failed: %v", p.Action, p.TableID, err)
		s.retry(p)
		return
	}
	if !p.Relevant(t) {
		s.logger.Debug("Timer %s for table %s: stale (deal %d move %d, now deal %d move %d phase %s)",
			p.Action, p.TableID, p.DealIndex, p.MoveCount, t.DealIndex, t.MoveCount, t.Phase)
		return
	}

	err = h(ctx, p)
	if errors.Is(err, lock.ErrBusy) {
		s.retry(p)
		return
	}
	if err != nil {
		s.logger.Error("Timer %s for table %s failed: %v", p.Action, p.TableID, err)
	}
}

func (s *Scheduler) retry(p Payload) {
	if p.Attempt >= s.opts.MaxRetries {
		s.logger.Error("Timer %s for table %s dropped after %d attempts", p.Action, p.TableID, p.Attempt+1)
		return
	}
	p.Attempt++
	s.Schedule(p, s.opts.RetryDelay)
}
