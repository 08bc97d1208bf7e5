package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// HistoryPlayer is one seat of a finished game.
type HistoryPlayer struct {
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Seat        int               `json:"seat"`
	Left        bool              `json:"left"`
	RoundScores []decimal.Decimal `json:"round_scores"`
	TotalScore  decimal.Decimal   `json:"total_score"`
	Winnings    int64             `json:"winnings"`
}

// GameResult summarises how a game ended.
type GameResult struct {
	TypeID      string `json:"type_id"`
	DealsPlayed int    `json:"deals_played"`
	WinnerSeats []int  `json:"winner_seats"`
	PrizeEach   int64  `json:"prize_each"`
	Forfeit     bool   `json:"forfeit"`
	EndedAt     int64  `json:"ended_at"`
}

// HistoryPort persists finished games.
type HistoryPort interface {
	RecordGameHistory(ctx context.Context, tableID string, players []HistoryPlayer, result GameResult) error
}
