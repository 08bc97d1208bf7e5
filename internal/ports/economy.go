package ports

import "context"

// EconomyPort defines the interface for moving table stakes and prizes.
type EconomyPort interface {
	// CheckBalance reports whether the user can afford amount.
	CheckBalance(ctx context.Context, userID string, amount int64) (bool, error)

	// DebitJoinFee withdraws amount from every user once their table fills.
	DebitJoinFee(ctx context.Context, userIDs []string, amount int64, tableID string) error

	// CreditWinnings pays amount to every user. Also used for refunds.
	CreditWinnings(ctx context.Context, userIDs []string, amount int64, tableID string) error
}
