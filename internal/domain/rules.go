package domain

// LegalMoves returns the cards the seat may play on the current trick.
//
// With no lead card every unplayed card is legal. On a lead without a trump
// override the seat must beat the lead in its suit, else follow suit, else
// trump, else discard anything. Once a trump has overridden the trick the seat
// must follow the lead suit, else play a higher trump, else discard anything.
// The result is never empty while the seat holds a card.
func LegalMoves(t *Table, seat int) []Card {
	p := t.PlayerAt(seat)
	if p == nil {
		return nil
	}
	hand := p.Remaining()
	if len(hand) == 0 || t.LeadSuitCard == nil {
		return hand
	}
	lead := *t.LeadSuitCard

	if t.OverrideLeadCard == nil {
		if higher := filter(hand, func(c Card) bool { return c.Suit == lead.Suit && c.Rank > lead.Rank }); len(higher) > 0 {
			return higher
		}
		if follow := filter(hand, func(c Card) bool { return c.Suit == lead.Suit }); len(follow) > 0 {
			return follow
		}
		if trumps := filter(hand, Card.IsTrump); len(trumps) > 0 {
			return trumps
		}
		return hand
	}

	override := *t.OverrideLeadCard
	if follow := filter(hand, func(c Card) bool { return c.Suit == lead.Suit }); len(follow) > 0 {
		return follow
	}
	if trumps := filter(hand, func(c Card) bool { return c.IsTrump() && c.Rank > override.Rank }); len(trumps) > 0 {
		return trumps
	}
	return hand
}

// IsLegal reports whether the card is among the seat's legal moves.
func IsLegal(t *Table, seat int, card Card) bool {
	for _, c := range LegalMoves(t, seat) {
		if c == card {
			return true
		}
	}
	return false
}

// ResolveTrick returns the winning card: the highest trump if any was played,
// otherwise the highest card of the lead suit.
func ResolveTrick(cards []Card, lead Card) Card {
	winner := lead
	for _, c := range cards {
		if beats(c, winner, lead.Suit) {
			winner = c
		}
	}
	return winner
}

// TrickWinner returns the seat that played the winning card of a trick.
func TrickWinner(trick []TrickCard) int {
	if len(trick) == 0 {
		return -1
	}
	cards := make([]Card, len(trick))
	for i, tc := range trick {
		cards[i] = tc.Card
	}
	win := ResolveTrick(cards, trick[0].Card)
	for _, tc := range trick {
		if tc.Card == win {
			return tc.Seat
		}
	}
	return -1
}

// RecordPlay places a card on the trick and updates the lead and override cards.
func RecordPlay(t *Table, seat int, card Card) {
	t.Trick = append(t.Trick, TrickCard{Seat: seat, Card: card})
	if t.LeadSuitCard == nil {
		lead := card
		t.LeadSuitCard = &lead
		return
	}
	if t.LeadSuitCard.Suit == TrumpSuit || !card.IsTrump() {
		return
	}
	if t.OverrideLeadCard == nil || card.Rank > t.OverrideLeadCard.Rank {
		override := card
		t.OverrideLeadCard = &override
	}
}

// ClearTrick resets the per-trick fields.
func ClearTrick(t *Table) {
	t.Trick = nil
	t.LeadSuitCard = nil
	t.OverrideLeadCard = nil
}

func beats(c, current Card, leadSuit Suit) bool {
	switch {
	case c.IsTrump() && !current.IsTrump():
		return true
	case c.IsTrump() && current.IsTrump():
		return c.Rank > current.Rank
	case current.IsTrump():
		return false
	case c.Suit == leadSuit && current.Suit == leadSuit:
		return c.Rank > current.Rank
	case c.Suit == leadSuit:
		return true
	}
	return false
}

func filter(cards []Card, keep func(Card) bool) []Card {
	var out []Card
	for _, c := range cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
