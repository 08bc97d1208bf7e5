package nakama

import (
	"strings"

	"callbreak/internal/domain"
)

func cardFromRequest(req playCardRequest) (domain.Card, bool) {
	suit := suitFromName(req.Suit)
	if suit == "" {
		return domain.Card{}, false
	}
	card := domain.Card{Suit: suit, Rank: req.Rank}
	return card, domain.ValidCard(card)
}

// suitFromName accepts the one-letter code or the suit name.
func suitFromName(s string) domain.Suit {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SPADE", "SPADES":
		return domain.Spade
	case "H", "HEART", "HEARTS":
		return domain.Heart
	case "D", "DIAMOND", "DIAMONDS":
		return domain.Diamond
	case "C", "CLUB", "CLUBS":
		return domain.Club
	default:
		return ""
	}
}
