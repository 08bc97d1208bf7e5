package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"callbreak/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
)

// WalletModule is the slice of runtime.NakamaModule the economy adapter needs.
type WalletModule interface {
	AccountGetId(ctx context.Context, userID string) (*api.Account, error)
	WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error)
}

// NakamaEconomyAdapter implements ports.EconomyPort using Nakama's wallet system.
type NakamaEconomyAdapter struct {
	nk WalletModule
}

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk WalletModule) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{
		nk: nk,
	}
}

// GetBalance retrieves the current gold balance for a user.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	if account.GetWallet() == "" {
		return 0, nil
	}

	var wallet map[string]int64
	if err := json.Unmarshal([]byte(account.GetWallet()), &wallet); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return wallet[WalletCurrency], nil
}

// CheckBalance reports whether the user holds at least amount gold.
func (a *NakamaEconomyAdapter) CheckBalance(ctx context.Context, userID string, amount int64) (bool, error) {
	balance, err := a.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// DebitJoinFee withdraws the stake from every player of a table that filled.
func (a *NakamaEconomyAdapter) DebitJoinFee(ctx context.Context, userIDs []string, amount int64, tableID string) error {
	return a.apply(ctx, userIDs, -amount, map[string]interface{}{
		"reason":   "join_fee",
		"table_id": tableID,
	})
}

// CreditWinnings pays amount to every user.
func (a *NakamaEconomyAdapter) CreditWinnings(ctx context.Context, userIDs []string, amount int64, tableID string) error {
	return a.apply(ctx, userIDs, amount, map[string]interface{}{
		"reason":   "winnings",
		"table_id": tableID,
	})
}

func (a *NakamaEconomyAdapter) apply(ctx context.Context, userIDs []string, amount int64, metadata map[string]interface{}) error {
	if amount == 0 {
		return nil
	}
	changes := map[string]int64{
		WalletCurrency: amount,
	}
	for _, userID := range userIDs {
		if _, _, err := a.nk.WalletUpdate(ctx, userID, changes, metadata, true); err != nil {
			return fmt.Errorf("failed to update wallet for user %s: %w", userID, err)
		}
	}
	return nil
}

var _ ports.EconomyPort = (*NakamaEconomyAdapter)(nil)
