package domain

import (
	"math/rand"
	"testing"
)

func TestDealHandsConstraints(t *testing.T) {
	deck := NewDeck()
	for seed := int64(0); seed < 200; seed++ {
		hands, err := DealHands(deck, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: DealHands() error: %v", seed, err)
		}

		seen := make(map[Card]bool)
		allLow := true
		for seat, hand := range hands {
			if len(hand) != TricksPerDeal {
				t.Fatalf("seed %d: seat %d hand size = %d, want %d", seed, seat, len(hand), TricksPerDeal)
			}
			suits := make(map[Suit]bool)
			for _, card := range hand {
				if seen[card] {
					t.Fatalf("seed %d: card %v dealt twice", seed, card)
				}
				seen[card] = true
				suits[card.Suit] = true
				if card.Rank > HighCardFloor {
					allLow = false
				}
			}
			if len(suits) != 4 {
				t.Fatalf("seed %d: seat %d lacks a suit: %v", seed, seat, hand)
			}
		}
		if allLow {
			t.Fatalf("seed %d: every hand maxes at rank <= %d", seed, HighCardFloor)
		}
		if len(seen) != 52 {
			t.Fatalf("seed %d: dealt %d distinct cards, want 52", seed, len(seen))
		}
	}
}

func TestDealHandsLeavesDeckUntouched(t *testing.T) {
	deck := NewDeck()
	before := append([]Card(nil), deck...)
	if _, err := DealHands(deck, rand.New(rand.NewSource(3))); err != nil {
		t.Fatalf("DealHands() error: %v", err)
	}
	for i := range deck {
		if deck[i] != before[i] {
			t.Fatalf("deck modified at %d", i)
		}
	}
}

func TestDealHandsRejectsShortDeck(t *testing.T) {
	if _, err := DealHands(NewDeck()[:40], rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for short deck")
	}
}

func TestAcceptableHand(t *testing.T) {
	tests := []struct {
		name string
		hand []Card
		want bool
	}{
		{name: "all suits with face card", hand: []Card{c(Spade, 2), c(Heart, 3), c(Diamond, 4), c(Club, 11)}, want: true},
		{name: "missing suit", hand: []Card{c(Spade, 2), c(Heart, 3), c(Heart, 14), c(Club, 11)}, want: false},
		{name: "only low cards", hand: []Card{c(Spade, 10), c(Heart, 3), c(Diamond, 4), c(Club, 9)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AcceptableHand(tt.hand); got != tt.want {
				t.Fatalf("AcceptableHand() = %v, want %v", got, tt.want)
			}
		})
	}
}
