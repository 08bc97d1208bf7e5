package domain

import (
	"errors"
	"math/rand"
)

// MaxDealAttempts bounds the re-shuffle loop of DealHands.
const MaxDealAttempts = 1000

// HighCardFloor is the rank every hand must exceed with at least one card.
const HighCardFloor = 10

// ErrDealExhausted is returned when no acceptable deal was found within MaxDealAttempts.
var ErrDealExhausted = errors.New("no acceptable deal found")

// DealHands shuffles the deck until every hand holds all four suits and at
// least one card above HighCardFloor, then splits it into SeatCount hands of
// TricksPerDeal cards. The input deck is not modified.
func DealHands(deck []Card, rng *rand.Rand) ([SeatCount][]Card, error) {
	var hands [SeatCount][]Card
	if len(deck) != SeatCount*TricksPerDeal {
		return hands, errors.New("deck must hold 52 cards")
	}

	work := make([]Card, len(deck))
	copy(work, deck)
	for attempt := 0; attempt < MaxDealAttempts; attempt++ {
		rng.Shuffle(len(work), func(i, j int) { work[i], work[j] = work[j], work[i] })
		for seat := 0; seat < SeatCount; seat++ {
			hands[seat] = append([]Card(nil), work[seat*TricksPerDeal:(seat+1)*TricksPerDeal]...)
		}
		if AcceptableDeal(hands) {
			return hands, nil
		}
	}
	return [SeatCount][]Card{}, ErrDealExhausted
}

// AcceptableDeal reports whether every hand satisfies the re-deal constraint.
func AcceptableDeal(hands [SeatCount][]Card) bool {
	for _, hand := range hands {
		if !AcceptableHand(hand) {
			return false
		}
	}
	return true
}

// AcceptableHand reports whether a hand holds all four suits and a card above HighCardFloor.
func AcceptableHand(hand []Card) bool {
	suits := make(map[Suit]bool, len(Suits))
	high := false
	for _, c := range hand {
		suits[c.Suit] = true
		if c.Rank > HighCardFloor {
			high = true
		}
	}
	return len(suits) == len(Suits) && high
}

// ToHand converts dealt cards into a sorted hand with cleared played flags.
func ToHand(cards []Card) []HandCard {
	hand := make([]HandCard, len(cards))
	for i, c := range cards {
		hand[i] = HandCard{Card: c}
	}
	SortHand(hand)
	return hand
}
