package bot

import (
	"callbreak/internal/domain"
)

// FallbackBrain makes the cheapest legal move: bid one, play the first legal card.
type FallbackBrain struct{}

// Bid always bids domain.MinBid.
func (FallbackBrain) Bid(*domain.Table, int) int {
	return domain.MinBid
}

// Card plays the first legal card in hand order.
func (FallbackBrain) Card(table *domain.Table, seat int) domain.Card {
	return domain.LegalMoves(table, seat)[0]
}

// GoodBrain counts likely winners to bid, then plays the cheapest card that
// takes the trick, dumping its lowest card when it cannot win.
type GoodBrain struct{}

// Bid counts high trumps, long trump length and side-suit aces and kings,
// clamped to the legal bid range.
func (GoodBrain) Bid(table *domain.Table, seat int) int {
	p := table.PlayerAt(seat)
	if p == nil {
		return domain.MinBid
	}

	bySuit := make(map[domain.Suit][]domain.Card)
	for _, c := range p.Remaining() {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	tricks := 0
	for _, suit := range domain.Suits {
		cards := bySuit[suit]
		if suit == domain.TrumpSuit {
			for _, c := range cards {
				if c.Rank >= 12 {
					tricks++
				}
			}
			if len(cards) > 3 {
				tricks += len(cards) - 3
			}
			continue
		}
		// Side-suit aces and guarded kings usually win before the suit is trumped.
		for _, c := range cards {
			if c.Rank == 14 || (c.Rank == 13 && len(cards) >= 2 && len(cards) <= 4) {
				tricks++
			}
		}
	}

	switch {
	case tricks < domain.MinBid:
		return domain.MinBid
	case tricks > domain.MaxBid:
		return domain.MaxBid
	}
	return tricks
}

// Card leads the highest non-trump, otherwise takes the trick as cheaply as
// possible or discards the lowest legal card.
func (GoodBrain) Card(table *domain.Table, seat int) domain.Card {
	legal := domain.LegalMoves(table, seat)
	if table.LeadSuitCard == nil {
		return highestNonTrump(legal)
	}

	current := make([]domain.Card, 0, len(table.Trick)+1)
	for _, tc := range table.Trick {
		current = append(current, tc.Card)
	}
	best := domain.ResolveTrick(current, *table.LeadSuitCard)

	var winner *domain.Card
	for i, c := range legal {
		if domain.ResolveTrick([]domain.Card{best, c}, *table.LeadSuitCard) != c {
			continue
		}
		if winner == nil || cheaper(c, *winner) {
			winner = &legal[i]
		}
	}
	if winner != nil {
		return *winner
	}
	return lowest(legal)
}

func highestNonTrump(cards []domain.Card) domain.Card {
	pick := cards[0]
	for _, c := range cards[1:] {
		if pick.IsTrump() && !c.IsTrump() {
			pick = c
			continue
		}
		if c.IsTrump() == pick.IsTrump() && c.Rank > pick.Rank {
			pick = c
		}
	}
	return pick
}

func lowest(cards []domain.Card) domain.Card {
	pick := cards[0]
	for _, c := range cards[1:] {
		if cheaper(c, pick) {
			pick = c
		}
	}
	return pick
}

// cheaper orders side suits before trumps, then by rank.
func cheaper(a, b domain.Card) bool {
	if a.IsTrump() != b.IsTrump() {
		return !a.IsTrump()
	}
	return a.Rank < b.Rank
}
