package domain

import "github.com/shopspring/decimal"

// overtrickValue is the score of each trick won beyond the bid.
var overtrickValue = decimal.New(1, -1)

// RoundScore scores one deal: -bid when short, bid when exact, and bid plus a
// tenth per overtrick otherwise.
func RoundScore(tricksWon, bid int) decimal.Decimal {
	b := decimal.NewFromInt(int64(bid))
	switch {
	case tricksWon < bid:
		return b.Neg()
	case tricksWon == bid:
		return b
	default:
		return b.Add(overtrickValue.Mul(decimal.NewFromInt(int64(tricksWon - bid))))
	}
}

// ScoreDeal appends the deal score to every player and updates cumulative totals.
func ScoreDeal(t *Table) {
	for _, p := range t.Players {
		s := RoundScore(p.TricksWon, p.HandBid)
		p.RoundScores = append(p.RoundScores, s)
		p.TotalScore = p.TotalScore.Add(s)
	}
}

// GameWinners returns the winning seats and the prize paid to each. A lone
// active player wins outright; otherwise the highest cumulative score wins and
// ties split the prize evenly (integer chips, remainder retained).
func GameWinners(t *Table) ([]int, int64) {
	active := t.ActivePlayers()
	if len(active) == 1 {
		return []int{active[0].Seat}, t.Type.Prize
	}
	if len(t.Players) == 0 {
		return nil, 0
	}

	best := t.Players[0].TotalScore
	for _, p := range t.Players[1:] {
		if p.TotalScore.GreaterThan(best) {
			best = p.TotalScore
		}
	}
	var seats []int
	for _, p := range t.Players {
		if p.TotalScore.Equal(best) {
			seats = append(seats, p.Seat)
		}
	}
	return seats, t.Type.Prize / int64(len(seats))
}

// ScoreRow is one seat's line of the scoreboard.
type ScoreRow struct {
	Seat        int               `json:"seat"`
	UserID      string            `json:"user_id"`
	Bid         int               `json:"bid"`
	TricksWon   int               `json:"tricks_won"`
	RoundScores []decimal.Decimal `json:"round_scores"`
	Total       decimal.Decimal   `json:"total"`
}

// Scoreboard builds the per-seat score lines in seat order.
func Scoreboard(t *Table) []ScoreRow {
	rows := make([]ScoreRow, 0, len(t.Players))
	for _, p := range t.Players {
		rows = append(rows, ScoreRow{
			Seat:        p.Seat,
			UserID:      p.UserID,
			Bid:         p.HandBid,
			TricksWon:   p.TricksWon,
			RoundScores: append([]decimal.Decimal(nil), p.RoundScores...),
			Total:       p.TotalScore,
		})
	}
	return rows
}
