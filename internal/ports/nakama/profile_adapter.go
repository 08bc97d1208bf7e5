package nakama

import (
	"context"
	"fmt"

	"callbreak/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// AccountModule reads Nakama accounts.
type AccountModule interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
}

// NakamaProfileAdapter implements ports.ProfilePort using Nakama's account API.
type NakamaProfileAdapter struct {
	nk AccountModule
}

// NewNakamaProfileAdapter creates a new profile adapter.
func NewNakamaProfileAdapter(nk AccountModule) *NakamaProfileAdapter {
	return &NakamaProfileAdapter{nk: nk}
}

// GetPlayerProfile returns the display name (falling back to the username)
// and avatar of the account.
func (a *NakamaProfileAdapter) GetPlayerProfile(ctx context.Context, userID string) (ports.PlayerProfile, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return ports.PlayerProfile{}, fmt.Errorf("failed to get account: %w", err)
	}
	user := account.GetUser()
	name := user.GetDisplayName()
	if name == "" {
		name = user.GetUsername()
	}
	return ports.PlayerProfile{Name: name, Avatar: user.GetAvatarUrl()}, nil
}

var _ ports.ProfilePort = (*NakamaProfileAdapter)(nil)
