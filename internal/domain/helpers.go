package domain

import "sort"

// LowestAvailableSeat returns the first free seat index (0-based), or -1 when the table is full.
func LowestAvailableSeat(t *Table) int {
	for seat := 0; seat < SeatCount; seat++ {
		if t.PlayerAt(seat) == nil {
			return seat
		}
	}
	return -1
}

// OrderSeats sorts players by seat label so Players[i].Seat == i on a full table.
func OrderSeats(t *Table) {
	sort.SliceStable(t.Players, func(i, j int) bool {
		return t.Players[i].Seat < t.Players[j].Seat
	})
}

// NextSeat returns the seat that moves after the given one.
func NextSeat(seat int) int {
	return (seat + 1) % SeatCount
}

// RemovePlayer drops the seat held by the user. It reports whether a seat was removed.
func RemovePlayer(t *Table, userID string) bool {
	for i, p := range t.Players {
		if p.UserID == userID {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Summary is the lightweight advertisement of a table used by listings.
type Summary struct {
	ID        string `json:"id"`
	TypeID    string `json:"type_id"`
	Phase     Phase  `json:"phase"`
	Seated    int    `json:"seated"`
	Active    int    `json:"active"`
	DealIndex int    `json:"deal_index"`
	Open      bool   `json:"open"`
	UpdatedAt int64  `json:"updated_at"`
}

// Summarize derives the listing summary from table state.
func Summarize(t *Table) Summary {
	return Summary{
		ID:        t.ID,
		TypeID:    t.Type.ID,
		Phase:     t.Phase,
		Seated:    len(t.Players),
		Active:    len(t.ActivePlayers()),
		DealIndex: t.DealIndex,
		Open:      t.Phase == PhaseWaiting && !t.IsFull(),
		UpdatedAt: t.UpdatedAt.Unix(),
	}
}
