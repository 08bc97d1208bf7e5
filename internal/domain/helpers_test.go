package domain

import (
	"encoding/json"
	"fmt"
	"testing"
)

func seatedTable(seats ...int) *Table {
	t := &Table{ID: "t1", Phase: PhaseWaiting}
	for _, s := range seats {
		t.Players = append(t.Players, &Player{UserID: fmt.Sprintf("u%d", s), Seat: s, Active: true})
	}
	return t
}

func TestLowestAvailableSeat(t *testing.T) {
	tests := []struct {
		name  string
		seats []int
		want  int
	}{
		{name: "all empty", seats: nil, want: 0},
		{name: "first taken", seats: []int{0}, want: 1},
		{name: "gap reused", seats: []int{0, 2}, want: 1},
		{name: "full returns minus one", seats: []int{0, 1, 2, 3}, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LowestAvailableSeat(seatedTable(tt.seats...)); got != tt.want {
				t.Fatalf("LowestAvailableSeat() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOrderSeats(t *testing.T) {
	table := seatedTable(2, 0, 3, 1)
	OrderSeats(table)
	for i, p := range table.Players {
		if p.Seat != i {
			t.Fatalf("Players[%d].Seat = %d, want %d", i, p.Seat, i)
		}
	}
}

func TestRemovePlayer(t *testing.T) {
	table := seatedTable(0, 1, 2)
	if !RemovePlayer(table, "u1") {
		t.Fatalf("RemovePlayer() = false, want true")
	}
	if table.PlayerByUser("u1") != nil {
		t.Fatalf("u1 still seated")
	}
	if RemovePlayer(table, "u1") {
		t.Fatalf("second RemovePlayer() = true, want false")
	}
	if got := LowestAvailableSeat(table); got != 1 {
		t.Fatalf("LowestAvailableSeat() = %d, want 1", got)
	}
}

func TestSummarize(t *testing.T) {
	table := seatedTable(0, 1)
	table.Type = TableType{ID: "classic"}
	table.Players[1].Active = false

	s := Summarize(table)
	if !s.Open || s.Seated != 2 || s.Active != 1 || s.TypeID != "classic" {
		t.Fatalf("unexpected summary: %+v", s)
	}

	table.Players = append(table.Players, &Player{Seat: 2}, &Player{Seat: 3})
	if Summarize(table).Open {
		t.Fatalf("expected Open=false for full table")
	}

	if _, err := json.Marshal(s); err != nil {
		t.Fatalf("summary should marshal: %v", err)
	}
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 52 {
		t.Fatalf("deck size = %d, want 52", len(deck))
	}

	seen := make(map[Card]bool)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card found: %+v", c)
		}
		seen[c] = true
		if !ValidCard(c) {
			t.Fatalf("invalid card in deck: %+v", c)
		}
	}
}

func TestPlayerMarkPlayed(t *testing.T) {
	p := &Player{Hand: ToHand([]Card{{Suit: Heart, Rank: 5}, {Suit: Spade, Rank: 14}})}

	if !p.MarkPlayed(Card{Suit: Heart, Rank: 5}) {
		t.Fatalf("MarkPlayed() = false, want true")
	}
	if p.MarkPlayed(Card{Suit: Heart, Rank: 5}) {
		t.Fatalf("MarkPlayed() twice = true, want false")
	}
	if p.Holds(Card{Suit: Heart, Rank: 5}) {
		t.Fatalf("played card still held")
	}
	if got := p.Remaining(); len(got) != 1 || got[0] != (Card{Suit: Spade, Rank: 14}) {
		t.Fatalf("Remaining() = %v", got)
	}
}

func TestTableClone(t *testing.T) {
	table := seatedTable(0, 1)
	table.Players[0].Hand = ToHand([]Card{{Suit: Club, Rank: 3}})
	lead := Card{Suit: Club, Rank: 3}
	table.LeadSuitCard = &lead

	c := table.Clone()
	c.Players[0].Hand[0].Played = true
	c.LeadSuitCard.Rank = 9
	c.Players[1].Active = false

	if table.Players[0].Hand[0].Played || table.LeadSuitCard.Rank != 3 || !table.Players[1].Active {
		t.Fatalf("clone shares state with original")
	}
}
