package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"callbreak/internal/app"
	"callbreak/internal/domain"
	"callbreak/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/shopspring/decimal"
)

// mockWallet implements WalletModule and AccountModule for testing.
type mockWallet struct {
	accounts map[string]*api.Account
	wallets  map[string]map[string]int64
	meta     []map[string]interface{}
	failFor  string
}

func (m *mockWallet) AccountGetId(ctx context.Context, userID string) (*api.Account, error) {
	if userID == m.failFor {
		return nil, errors.New("account lookup failed")
	}
	if acc, ok := m.accounts[userID]; ok {
		return acc, nil
	}
	return &api.Account{Wallet: "{}"}, nil
}

func (m *mockWallet) WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error) {
	if userID == m.failFor {
		return nil, nil, errors.New("wallet update failed")
	}
	if m.wallets == nil {
		m.wallets = make(map[string]map[string]int64)
	}
	if _, ok := m.wallets[userID]; !ok {
		m.wallets[userID] = make(map[string]int64)
	}
	prev := make(map[string]int64)
	for k, v := range m.wallets[userID] {
		prev[k] = v
	}
	for k, v := range changeset {
		m.wallets[userID][k] += v
	}
	m.meta = append(m.meta, metadata)
	return m.wallets[userID], prev, nil
}

func TestEconomyAdapterCheckBalance(t *testing.T) {
	nk := &mockWallet{
		accounts: map[string]*api.Account{
			"rich":  {Wallet: `{"gold": 500}`},
			"poor":  {Wallet: `{"gold": 20}`},
			"empty": {},
			"bad":   {Wallet: `not json`},
		},
		failFor: "broken",
	}
	economy := NewNakamaEconomyAdapter(nk)

	tests := []struct {
		name    string
		user    string
		want    bool
		wantErr bool
	}{
		{name: "enough", user: "rich", want: true},
		{name: "short", user: "poor", want: false},
		{name: "no wallet", user: "empty", want: false},
		{name: "corrupt wallet", user: "bad", wantErr: true},
		{name: "lookup error", user: "broken", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := economy.CheckBalance(context.Background(), tt.user, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckBalance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("CheckBalance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEconomyAdapterDebitAndCredit(t *testing.T) {
	nk := &mockWallet{}
	economy := NewNakamaEconomyAdapter(nk)
	ctx := context.Background()

	if err := economy.DebitJoinFee(ctx, []string{"a", "b"}, 100, "t1"); err != nil {
		t.Fatalf("DebitJoinFee() error: %v", err)
	}
	if err := economy.CreditWinnings(ctx, []string{"a"}, 360, "t1"); err != nil {
		t.Fatalf("CreditWinnings() error: %v", err)
	}
	if got := nk.wallets["a"][WalletCurrency]; got != 260 {
		t.Fatalf("wallet a = %d, want 260", got)
	}
	if got := nk.wallets["b"][WalletCurrency]; got != -100 {
		t.Fatalf("wallet b = %d, want -100", got)
	}
	if nk.meta[0]["reason"] != "join_fee" || nk.meta[2]["reason"] != "winnings" || nk.meta[2]["table_id"] != "t1" {
		t.Fatalf("unexpected ledger metadata: %+v", nk.meta)
	}

	if err := economy.CreditWinnings(ctx, []string{"c"}, 0, "t1"); err != nil || nk.wallets["c"] != nil {
		t.Fatalf("zero credit should be skipped")
	}

	nk.failFor = "b"
	if err := economy.DebitJoinFee(ctx, []string{"a", "b"}, 100, "t2"); err == nil {
		t.Fatalf("expected wallet error to surface")
	}
}

func TestProfileAdapter(t *testing.T) {
	nk := &mockWallet{
		accounts: map[string]*api.Account{
			"named":   {User: &api.User{Username: "u_named", DisplayName: "Named", AvatarUrl: "a.png"}},
			"noname":  {User: &api.User{Username: "u_noname"}},
			"no-user": {},
		},
		failFor: "broken",
	}
	profiles := NewNakamaProfileAdapter(nk)
	ctx := context.Background()

	tests := []struct {
		user string
		want ports.PlayerProfile
	}{
		{user: "named", want: ports.PlayerProfile{Name: "Named", Avatar: "a.png"}},
		{user: "noname", want: ports.PlayerProfile{Name: "u_noname"}},
		{user: "no-user", want: ports.PlayerProfile{}},
	}
	for _, tt := range tests {
		got, err := profiles.GetPlayerProfile(ctx, tt.user)
		if err != nil {
			t.Fatalf("GetPlayerProfile(%s) error: %v", tt.user, err)
		}
		if got != tt.want {
			t.Fatalf("GetPlayerProfile(%s) = %+v, want %+v", tt.user, got, tt.want)
		}
	}
	if _, err := profiles.GetPlayerProfile(ctx, "broken"); err == nil {
		t.Fatalf("expected lookup error")
	}
}

type mockStorage struct {
	writes []*runtime.StorageWrite
	err    error
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.writes = append(m.writes, writes...)
	return make([]*api.StorageObjectAck, len(writes)), nil
}

func TestHistoryAdapterWritesPerPlayer(t *testing.T) {
	nk := &mockStorage{}
	history := NewNakamaHistoryAdapter(nk)
	players := []ports.HistoryPlayer{
		{UserID: "a", Seat: 0, TotalScore: decimal.RequireFromString("4.2"), Winnings: 360},
		{UserID: "b", Seat: 1, Left: true, TotalScore: decimal.RequireFromString("-3")},
	}
	result := ports.GameResult{TypeID: "classic", DealsPlayed: 5, WinnerSeats: []int{0}, PrizeEach: 360}

	if err := history.RecordGameHistory(context.Background(), "t1", players, result); err != nil {
		t.Fatalf("RecordGameHistory() error: %v", err)
	}
	if len(nk.writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(nk.writes))
	}
	for i, w := range nk.writes {
		if w.Collection != historyCollection || w.Key != "t1" || w.UserID != players[i].UserID {
			t.Fatalf("write %d = %+v", i, w)
		}
		if w.PermissionRead != runtime.STORAGE_PERMISSION_OWNER_READ || w.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
			t.Fatalf("write %d permissions = %d/%d", i, w.PermissionRead, w.PermissionWrite)
		}
	}

	var rec historyRecord
	if err := json.Unmarshal([]byte(nk.writes[0].Value), &rec); err != nil {
		t.Fatalf("stored value is not json: %v", err)
	}
	if rec.TableID != "t1" || rec.Result.PrizeEach != 360 || !rec.Players[0].TotalScore.Equal(decimal.RequireFromString("4.2")) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	nk.err = errors.New("storage down")
	if err := history.RecordGameHistory(context.Background(), "t2", players, result); err == nil {
		t.Fatalf("expected storage error")
	}
}

type sentNotification struct {
	userID  string
	subject string
	content map[string]interface{}
	code    int
}

type mockNotifications struct {
	sent    []sentNotification
	failFor string
}

func (m *mockNotifications) NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error {
	if userID == m.failFor {
		return errors.New("offline")
	}
	m.sent = append(m.sent, sentNotification{userID: userID, subject: subject, content: content, code: code})
	return nil
}

func TestNotifierSendsEventPayload(t *testing.T) {
	nk := &mockNotifications{failFor: "c"}
	notifier := NewNakamaNotifier(nk)

	payload := app.TurnToPlayPayload{
		Seat:       2,
		LegalCards: []domain.Card{{Suit: domain.Spade, Rank: 14}},
		TimeoutMs:  15000,
	}
	err := notifier.Notify(context.Background(), []string{"a", "c", "b"}, string(app.EventTurnToPlay), payload)
	if err == nil {
		t.Fatalf("expected error for failed recipient")
	}
	if len(nk.sent) != 2 {
		t.Fatalf("sent = %d, want 2 despite one failure", len(nk.sent))
	}

	n := nk.sent[0]
	if n.subject != "turn_to_play" || n.code != CodeTurnToPlay {
		t.Fatalf("notification = %+v", n)
	}
	if seat, _ := n.content["seat"].(float64); seat != 2 {
		t.Fatalf("content seat = %v, want 2", n.content["seat"])
	}
	cards, _ := n.content["legal_cards"].([]interface{})
	if len(cards) != 1 {
		t.Fatalf("content legal_cards = %v", n.content["legal_cards"])
	}

	if err := notifier.Notify(context.Background(), []string{"a"}, "mystery", payload); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestEventContentKeepsPayloadWireForm(t *testing.T) {
	payload := app.GameEndedPayload{
		Scoreboard: []domain.ScoreRow{{
			Seat:  1,
			Total: decimal.RequireFromString("4.2"),
		}},
		Forfeit: true,
	}

	content, err := eventContent(payload)
	if err != nil {
		t.Fatalf("eventContent() error: %v", err)
	}
	if content["forfeit"] != true {
		t.Fatalf("forfeit = %#v, want true", content["forfeit"])
	}
	rows, _ := content["scoreboard"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("scoreboard = %v", content["scoreboard"])
	}
	if total := rows[0].(map[string]interface{})["total"]; total != "4.2" {
		t.Fatalf("total = %#v, want exact decimal string", total)
	}

	if _, err := eventContent([]int{1}); err == nil {
		t.Fatalf("expected error for a payload that is not an object")
	}
}

func TestEveryEventKindHasCode(t *testing.T) {
	kinds := []app.EventKind{
		app.EventJoined, app.EventRoundStarted, app.EventCardsDealt, app.EventBidTurn,
		app.EventBidResult, app.EventTurnToPlay, app.EventCardPlayed, app.EventTrickWon,
		app.EventRoundEnded, app.EventGameEnded, app.EventPlayerLeft, app.EventTableExpired,
		app.EventPlayerOffline, app.EventPlayerReconnected, app.EventTableCleared,
	}
	seen := make(map[int]bool)
	for _, k := range kinds {
		code, ok := eventCodes[k]
		if !ok {
			t.Fatalf("no notification code for %s", k)
		}
		if code <= 0 || seen[code] {
			t.Fatalf("code %d for %s is reserved or duplicated", code, k)
		}
		seen[code] = true
	}
}
