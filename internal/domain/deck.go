package domain

import (
	"sort"
)

// NewDeck returns an ordered 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := 2; r <= 14; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// SortHand orders cards by suit (deck order) and ascending rank.
func SortHand(cards []HandCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cardOrder(cards[i].Card) < cardOrder(cards[j].Card)
	})
}

func cardOrder(c Card) int {
	return suitIndex(c.Suit)*16 + c.Rank
}

func suitIndex(s Suit) int {
	for i, suit := range Suits {
		if suit == s {
			return i
		}
	}
	return len(Suits)
}

// ValidCard reports whether the card is part of a standard deck.
func ValidCard(c Card) bool {
	return suitIndex(c.Suit) < len(Suits) && c.Rank >= 2 && c.Rank <= 14
}
