package ports

import "context"

// NotifierPort delivers table events to connected users.
type NotifierPort interface {
	// Notify sends kind with payload to every recipient.
	Notify(ctx context.Context, recipients []string, kind string, payload interface{}) error
}
