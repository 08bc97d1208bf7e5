package app

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"callbreak/internal/config"
	"callbreak/internal/domain"
	"callbreak/internal/lock"
	"callbreak/internal/ports"
	"callbreak/internal/scheduler"
	"callbreak/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/redis/go-redis/v9"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// manualTimers records scheduled timeouts so tests decide when they fire.
type manualTimers struct {
	mu      sync.Mutex
	pending []pendingTimer
}

func (m *manualTimers) Schedule(p scheduler.Payload, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, pendingTimer{payload: p, delay: delay})
}

// take removes and returns the most recently armed timer matching keep.
func (m *manualTimers) take(keep func(scheduler.Payload) bool) (pendingTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.pending) - 1; i >= 0; i-- {
		if keep(m.pending[i].payload) {
			pt := m.pending[i]
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return pt, true
		}
	}
	return pendingTimer{}, false
}

func (m *manualTimers) count(action scheduler.Action) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, pt := range m.pending {
		if pt.payload.Action == action {
			n++
		}
	}
	return n
}

type walletCall struct {
	users   []string
	amount  int64
	tableID string
}

type fakeEconomy struct {
	mu       sync.Mutex
	balances map[string]int64
	debits   []walletCall
	credits  []walletCall
}

func (e *fakeEconomy) CheckBalance(_ context.Context, userID string, amount int64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bal, ok := e.balances[userID]
	if !ok {
		bal = 1000
	}
	return bal >= amount, nil
}

func (e *fakeEconomy) DebitJoinFee(_ context.Context, userIDs []string, amount int64, tableID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.debits = append(e.debits, walletCall{users: append([]string(nil), userIDs...), amount: amount, tableID: tableID})
	return nil
}

func (e *fakeEconomy) CreditWinnings(_ context.Context, userIDs []string, amount int64, tableID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.credits = append(e.credits, walletCall{users: append([]string(nil), userIDs...), amount: amount, tableID: tableID})
	return nil
}

type fakeProfiles struct{}

func (fakeProfiles) GetPlayerProfile(_ context.Context, userID string) (ports.PlayerProfile, error) {
	return ports.PlayerProfile{Name: "Name-" + userID, Avatar: "avatar-" + userID}, nil
}

type historyCall struct {
	tableID string
	players []ports.HistoryPlayer
	result  ports.GameResult
}

type fakeHistory struct {
	mu    sync.Mutex
	calls []historyCall
}

func (h *fakeHistory) RecordGameHistory(_ context.Context, tableID string, players []ports.HistoryPlayer, result ports.GameResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, historyCall{tableID: tableID, players: players, result: result})
	return nil
}

type sentEvent struct {
	kind       string
	recipients []string
	payload    interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *fakeNotifier) Notify(_ context.Context, recipients []string, kind string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{kind: kind, recipients: recipients, payload: payload})
	return nil
}

func (n *fakeNotifier) count(kind EventKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, ev := range n.events {
		if ev.kind == string(kind) {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) last(kind EventKind) (sentEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].kind == string(kind) {
			return n.events[i], true
		}
	}
	return sentEvent{}, false
}

type harness struct {
	svc      *Service
	store    *store.Store
	locks    *lock.Manager
	timers   *manualTimers
	economy  *fakeEconomy
	history  *fakeHistory
	notifier *fakeNotifier
	clock    *fakeClock
}

func testConfig() *config.GameConfig {
	return &config.GameConfig{
		TableTypes: []domain.TableType{
			{ID: "classic", Stake: 100, Prize: 360, Deals: 5},
			{ID: "quick", Stake: 50, Prize: 180, Deals: 1},
		},
		Timeouts: config.Timeouts{
			StartDelay:     3 * time.Second,
			BidTimeout:     15 * time.Second,
			PlayTimeout:    15 * time.Second,
			AutoPlayDelay:  time.Second,
			RoundEndDelay:  5 * time.Second,
			WaitingTimeout: 2 * time.Minute,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &harness{
		store:    store.New(rdb, "test"),
		locks:    lock.New(rdb, lock.Options{Prefix: "test", RetryDelay: time.Millisecond, MaxRetries: 2000}),
		timers:   &manualTimers{},
		economy:  &fakeEconomy{balances: map[string]int64{}},
		history:  &fakeHistory{},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{now: time.Now()},
	}
	h.svc = NewService(Deps{
		Store:    h.store,
		Locks:    h.locks,
		Timers:   h.timers,
		Economy:  h.economy,
		Profiles: fakeProfiles{},
		History:  h.history,
		Notifier: h.notifier,
		Config:   testConfig(),
		Logger:   noopLogger{},
		Rng:      rand.New(rand.NewSource(42)),
		Now:      h.clock.Now,
	})
	return h
}

func (h *harness) load(t *testing.T, tableID string) *domain.Table {
	t.Helper()
	tbl, err := h.store.LoadTable(context.Background(), tableID)
	if err != nil {
		t.Fatalf("load table %s: %v", tableID, err)
	}
	return tbl
}

// fire advances the clock by the timer delay and runs the latest timer for action.
func (h *harness) fire(t *testing.T, action scheduler.Action) scheduler.Payload {
	t.Helper()
	pt, ok := h.timers.take(func(p scheduler.Payload) bool { return p.Action == action })
	if !ok {
		t.Fatalf("no %s timer pending", action)
	}
	h.clock.Advance(pt.delay)
	if err := h.svc.HandleTimeout(context.Background(), pt.payload); err != nil {
		t.Fatalf("HandleTimeout(%+v) error: %v", pt.payload, err)
	}
	return pt.payload
}

// seatFour joins four users and returns the table id.
func (h *harness) seatFour(t *testing.T, typeID string) (string, []string) {
	t.Helper()
	users := []string{"p1", "p2", "p3", "p4"}
	var res *JoinResult
	for i, u := range users {
		var err error
		res, err = h.svc.Join(context.Background(), u, typeID)
		if err != nil {
			t.Fatalf("Join(%s) error: %v", u, err)
		}
		if res.Seat != i {
			t.Fatalf("Join(%s) seat = %d, want %d", u, res.Seat, i)
		}
	}
	return res.TableID, users
}

// startBidding seats four players and opens bidding.
func (h *harness) startBidding(t *testing.T, typeID string) (string, []string) {
	t.Helper()
	id, users := h.seatFour(t, typeID)
	h.fire(t, scheduler.ActionStartBidding)
	return id, users
}

// bidAll submits the bids in turn order, indexed by seat.
func (h *harness) bidAll(t *testing.T, tableID string, bySeat [4]int) {
	t.Helper()
	for i := 0; i < domain.SeatCount; i++ {
		tbl := h.load(t, tableID)
		seat := tbl.CurrentTurn
		if err := h.svc.Bid(context.Background(), tbl.PlayerAt(seat).UserID, bySeat[seat]); err != nil {
			t.Fatalf("Bid(seat %d) error: %v", seat, err)
		}
	}
}

// playDeal plays all 52 cards using the first legal move of each seat.
func (h *harness) playDeal(t *testing.T, tableID string) {
	t.Helper()
	for i := 0; i < domain.SeatCount*domain.TricksPerDeal; i++ {
		tbl := h.load(t, tableID)
		seat := tbl.CurrentTurn
		card := domain.LegalMoves(tbl, seat)[0]
		if err := h.svc.PlayCard(context.Background(), tbl.PlayerAt(seat).UserID, card); err != nil {
			t.Fatalf("move %d: PlayCard(seat %d, %v) error: %v", i, seat, card, err)
		}
	}
}
