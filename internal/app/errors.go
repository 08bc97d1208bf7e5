package app

import (
	"errors"
	"fmt"

	"callbreak/internal/lock"
	"callbreak/internal/store"
)

// Error families. Specific errors wrap one of these so callers can use errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	// ErrBusy means a lock could not be acquired; the caller should retry later.
	ErrBusy = lock.ErrBusy
)

var (
	ErrNoActiveTable     = fmt.Errorf("%w: user has no active table", ErrNotFound)
	ErrTableNotFound     = fmt.Errorf("%w: table does not exist", ErrNotFound)
	ErrNotSeated         = fmt.Errorf("%w: user is not seated at this table", ErrNotFound)
	ErrUnknownTableType  = fmt.Errorf("%w: unknown table type", ErrConflict)
	ErrAlreadySeated     = fmt.Errorf("%w: user is already seated at a table", ErrConflict)
	ErrWrongPhase        = fmt.Errorf("%w: action not allowed in this phase", ErrInvalidState)
	ErrNotYourTurn       = fmt.Errorf("%w: not your turn", ErrInvalidState)
	ErrInvalidBid        = fmt.Errorf("%w: bid out of range", ErrInvalidState)
	ErrAlreadyBid        = fmt.Errorf("%w: bid already submitted", ErrInvalidState)
	ErrInvalidCard       = fmt.Errorf("%w: not a card", ErrInvalidState)
	ErrCardNotHeld       = fmt.Errorf("%w: card not in hand", ErrInvalidState)
	ErrIllegalCard       = fmt.Errorf("%w: card not playable on this trick", ErrInvalidState)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient balance for stake", ErrInvalidState)
)

// notFound maps store misses onto the app taxonomy.
func notFound(err error, as error) error {
	if errors.Is(err, store.ErrNotFound) {
		return as
	}
	return err
}
