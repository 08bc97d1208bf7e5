package app

import "callbreak/internal/domain"

// EventKind identifies emitted table events for dispatch to clients.
type EventKind string

const (
	EventJoined            EventKind = "joined"
	EventRoundStarted      EventKind = "round_started"
	EventCardsDealt        EventKind = "cards_dealt"
	EventBidTurn           EventKind = "bid_turn"
	EventBidResult         EventKind = "bid_result"
	EventTurnToPlay        EventKind = "turn_to_play"
	EventCardPlayed        EventKind = "card_played"
	EventTrickWon          EventKind = "trick_won"
	EventRoundEnded        EventKind = "round_ended"
	EventGameEnded         EventKind = "game_ended"
	EventPlayerLeft        EventKind = "player_left"
	EventTableExpired      EventKind = "table_expired"
	EventPlayerOffline     EventKind = "player_offline"
	EventPlayerReconnected EventKind = "player_reconnected"
	EventTableCleared      EventKind = "table_cleared"
)

// Event is a table event addressed to specific users.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string
}

type SeatInfo struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Active bool   `json:"active"`
}

type JoinedPayload struct {
	TableID string     `json:"table_id"`
	Seat    int        `json:"seat"`
	UserID  string     `json:"user_id"`
	Players []SeatInfo `json:"players"`
}

type RoundStartedPayload struct {
	TableID    string     `json:"table_id"`
	DealIndex  int        `json:"deal_index"`
	Deals      int        `json:"deals"`
	DealerSeat int        `json:"dealer_seat"`
	Players    []SeatInfo `json:"players"`
}

type CardsDealtPayload struct {
	Hand      []domain.Card `json:"hand"`
	TimeoutMs int64         `json:"timeout_ms"`
}

type BidTurnPayload struct {
	Seat      int   `json:"seat"`
	TimeoutMs int64 `json:"timeout_ms"`
}

type BidResultPayload struct {
	Seat int  `json:"seat"`
	Bid  int  `json:"bid"`
	Auto bool `json:"auto"`
}

type TurnToPlayPayload struct {
	Seat       int           `json:"seat"`
	LegalCards []domain.Card `json:"legal_cards,omitempty"`
	TimeoutMs  int64         `json:"timeout_ms"`
}

type CardPlayedPayload struct {
	Seat int         `json:"seat"`
	Card domain.Card `json:"card"`
	Auto bool        `json:"auto"`
}

type TrickWonPayload struct {
	Seat      int                `json:"seat"`
	Cards     []domain.TrickCard `json:"cards"`
	TricksWon int                `json:"tricks_won"`
}

type RoundEndedPayload struct {
	DealIndex  int               `json:"deal_index"`
	Scoreboard []domain.ScoreRow `json:"scoreboard"`
}

type Winning struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type GameEndedPayload struct {
	Winners    []Winning         `json:"winners"`
	Scoreboard []domain.ScoreRow `json:"scoreboard"`
	Forfeit    bool              `json:"forfeit"`
}

type PlayerLeftPayload struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
}

type TableExpiredPayload struct {
	TableID string `json:"table_id"`
}

type PresencePayload struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
}

type TableClearedPayload struct {
	TableID string `json:"table_id"`
	Reason  string `json:"reason"`
	Refund  int64  `json:"refund"`
}
