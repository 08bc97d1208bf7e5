package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrBusy is returned when a key stayed held for every acquisition attempt.
	ErrBusy = errors.New("lock busy")
	// ErrNotHeld is returned by Release when the lease no longer owns its key.
	ErrNotHeld = errors.New("lock not held")
)

// releaseScript deletes the key only while it still carries the lease token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is proof of ownership of a lock key.
type Lease struct {
	Key   string
	Token string
}

// Options tunes acquisition.
type Options struct {
	Prefix     string
	RetryDelay time.Duration
	MaxRetries int
	// TTL of zero means the key never expires on its own.
	TTL time.Duration
}

// Manager grants mutually exclusive leases on named keys stored in Redis.
type Manager struct {
	rdb  redis.UniversalClient
	opts Options
}

// New creates a Manager. MaxRetries below one is treated as a single attempt.
func New(rdb redis.UniversalClient, opts Options) *Manager {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Manager{rdb: rdb, opts: opts}
}

// Key returns the storage key used for a lock name.
func (m *Manager) Key(name string) string {
	if m.opts.Prefix == "" {
		return "lock:" + name
	}
	return m.opts.Prefix + ":lock:" + name
}

// Acquire tries to take the named lock, waiting RetryDelay between attempts.
// It returns ErrBusy once MaxRetries attempts have failed.
func (m *Manager) Acquire(ctx context.Context, name string) (*Lease, error) {
	key := m.Key(name)
	token := uuid.NewString()

	for attempt := 1; ; attempt++ {
		ok, err := m.rdb.SetNX(ctx, key, token, m.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &Lease{Key: key, Token: token}, nil
		}
		if attempt >= m.opts.MaxRetries {
			return nil, fmt.Errorf("%w: %s", ErrBusy, key)
		}

		timer := time.NewTimer(m.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees the lease. Releasing a nil lease is a no-op.
func (m *Manager) Release(ctx context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	n, err := releaseScript.Run(ctx, m.rdb, []string{lease.Key}, lease.Token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lease.Key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, lease.Key)
	}
	return nil
}

// Held reports whether any lease currently owns the named lock.
func (m *Manager) Held(ctx context.Context, name string) (bool, error) {
	n, err := m.rdb.Exists(ctx, m.Key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to inspect lock %s: %w", name, err)
	}
	return n > 0, nil
}
