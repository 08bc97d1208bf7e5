package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase represents the lifecycle stage of a table.
type Phase string

const (
	// PhaseWaiting is the matchmaking state where players can still join.
	PhaseWaiting Phase = "waiting"
	// PhaseRoundStarted means hands are dealt and bidding opens after the start delay.
	PhaseRoundStarted Phase = "round_started"
	// PhaseBidding means seats declare their target tricks in turn.
	PhaseBidding Phase = "bidding"
	// PhasePlaying means tricks are being played.
	PhasePlaying Phase = "playing"
	// PhaseRoundEnded means all tricks of the deal were played and scored.
	PhaseRoundEnded Phase = "round_ended"
	// PhaseGameEnded means the final deal was scored or the game was forfeited.
	PhaseGameEnded Phase = "game_ended"
)

const (
	// SeatCount is the number of seats at a table.
	SeatCount = 4
	// TricksPerDeal is the number of tricks (and cards per hand) in one deal.
	TricksPerDeal = 13
	// MinBid and MaxBid bound a legal bid.
	MinBid = 1
	MaxBid = 13
)

// Suit is one of the four card suits.
type Suit string

const (
	Spade   Suit = "S"
	Heart   Suit = "H"
	Diamond Suit = "D"
	Club    Suit = "C"
)

// TrumpSuit beats every other suit regardless of the lead.
const TrumpSuit = Spade

// Suits lists the suits in deck order.
var Suits = []Suit{Spade, Heart, Diamond, Club}

// Card is an immutable playing card. Rank runs 2..14 with the ace high.
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// IsTrump reports whether the card belongs to the trump suit.
func (c Card) IsTrump() bool {
	return c.Suit == TrumpSuit
}

// HandCard is a dealt card with its played flag.
type HandCard struct {
	Card
	Played bool `json:"played"`
}

// TrickCard is a card placed on the current trick by a seat.
type TrickCard struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// TableType describes the stake, prize pool and length of a game.
type TableType struct {
	ID    string `json:"id" mapstructure:"id"`
	Stake int64  `json:"stake" mapstructure:"stake"`
	Prize int64  `json:"prize" mapstructure:"prize"`
	Deals int    `json:"deals" mapstructure:"deals"`
}

// Player holds the per-seat state of a table.
type Player struct {
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Avatar      string            `json:"avatar"`
	Seat        int               `json:"seat"`
	Active      bool              `json:"active"`
	Left        bool              `json:"left"`
	HandBid     int               `json:"hand_bid"`
	TricksWon   int               `json:"tricks_won"`
	Hand        []HandCard        `json:"hand"`
	RoundScores []decimal.Decimal `json:"round_scores"`
	TotalScore  decimal.Decimal   `json:"total_score"`
	Deadline    time.Time         `json:"deadline"`
}

// Remaining returns the cards that have not been played yet, in hand order.
func (p *Player) Remaining() []Card {
	out := make([]Card, 0, len(p.Hand))
	for _, hc := range p.Hand {
		if !hc.Played {
			out = append(out, hc.Card)
		}
	}
	return out
}

// Holds reports whether the card is in the hand and still unplayed.
func (p *Player) Holds(card Card) bool {
	for _, hc := range p.Hand {
		if hc.Card == card && !hc.Played {
			return true
		}
	}
	return false
}

// MarkPlayed flags the card as played. It returns false if the card is not held.
func (p *Player) MarkPlayed(card Card) bool {
	for i := range p.Hand {
		if p.Hand[i].Card == card && !p.Hand[i].Played {
			p.Hand[i].Played = true
			return true
		}
	}
	return false
}

// Table is the aggregate root for one running game.
type Table struct {
	ID               string      `json:"id"`
	Type             TableType   `json:"type"`
	Phase            Phase       `json:"phase"`
	DealIndex        int         `json:"deal_index"`
	DealInRound      int         `json:"deal_in_round"`
	MoveCount        int         `json:"move_count"`
	CurrentTurn      int         `json:"current_turn"`
	DealerSeat       int         `json:"dealer_seat"`
	LeadSuitCard     *Card       `json:"lead_suit_card,omitempty"`
	OverrideLeadCard *Card       `json:"override_lead_card,omitempty"`
	Trick            []TrickCard `json:"trick"`
	Players          []*Player   `json:"players"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Version          int64       `json:"version"`
}

// PlayerAt returns the player occupying the seat, or nil.
func (t *Table) PlayerAt(seat int) *Player {
	for _, p := range t.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// PlayerByUser returns the player for the user id, or nil.
func (t *Table) PlayerByUser(userID string) *Player {
	for _, p := range t.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// ActivePlayers returns the players currently present at the table.
func (t *Table) ActivePlayers() []*Player {
	out := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// UserIDs returns the user ids of every seated player in seat order.
func (t *Table) UserIDs() []string {
	out := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		out = append(out, p.UserID)
	}
	return out
}

// IsFull reports whether every seat is taken.
func (t *Table) IsFull() bool {
	return len(t.Players) == SeatCount
}

// InPlay reports whether the table is past matchmaking and not yet finished.
func (t *Table) InPlay() bool {
	switch t.Phase {
	case PhaseRoundStarted, PhaseBidding, PhasePlaying, PhaseRoundEnded:
		return true
	}
	return false
}

// TricksCompleted returns the sum of tricks won across all seats.
func (t *Table) TricksCompleted() int {
	n := 0
	for _, p := range t.Players {
		n += p.TricksWon
	}
	return n
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	if t.LeadSuitCard != nil {
		lead := *t.LeadSuitCard
		c.LeadSuitCard = &lead
	}
	if t.OverrideLeadCard != nil {
		override := *t.OverrideLeadCard
		c.OverrideLeadCard = &override
	}
	c.Trick = append([]TrickCard(nil), t.Trick...)
	c.Players = make([]*Player, len(t.Players))
	for i, p := range t.Players {
		cp := *p
		cp.Hand = append([]HandCard(nil), p.Hand...)
		cp.RoundScores = append([]decimal.Decimal(nil), p.RoundScores...)
		c.Players[i] = &cp
	}
	return &c
}
