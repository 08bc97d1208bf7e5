package ports

import "context"

// PlayerProfile is the public identity shown at a seat.
type PlayerProfile struct {
	Name   string
	Avatar string
}

// ProfilePort resolves display data for a user.
type ProfilePort interface {
	GetPlayerProfile(ctx context.Context, userID string) (PlayerProfile, error)
}
