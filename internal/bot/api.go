package bot

import (
	"callbreak/internal/domain"
)

// Level selects an auto-play strategy.
type Level string

const (
	LevelFallback Level = "fallback"
	LevelGood     Level = "good"
)

// Brain is the interface that all auto-play strategies must implement.
type Brain interface {
	// Bid returns the bid for the seat, within domain.MinBid..domain.MaxBid.
	Bid(table *domain.Table, seat int) int
	// Card returns a legal card for the seat. The seat must hold at least one card.
	Card(table *domain.Table, seat int) domain.Card
}
