package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"callbreak/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists tables and the user/type indexes in Redis.
//
// Keys:
//
//	{prefix}:table:{id}        table JSON
//	{prefix}:user:{uid}:table  active table of a user
//	{prefix}:waiting:{type}    open table accepting joins for a type
//	{prefix}:tables:activity   sorted set of table ids scored by last update
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a Store. An empty prefix defaults to "cb".
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "cb"
	}
	return &Store{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *Store) tableKey(id string) string    { return s.prefix + ":table:" + id }
func (s *Store) userKey(userID string) string { return s.prefix + ":user:" + userID + ":table" }
func (s *Store) waitingKey(typeID string) string {
	return s.prefix + ":waiting:" + typeID
}
func (s *Store) activityKey() string { return s.prefix + ":tables:activity" }

// LoadTable reads a table by id.
func (s *Store) LoadTable(ctx context.Context, id string) (*domain.Table, error) {
	data, err := s.rdb.Get(ctx, s.tableKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("table %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", id, err)
	}

	var t domain.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", id, err)
	}
	return &t, nil
}

// StoreTable writes the table, stamping UpdatedAt and bumping Version.
func (s *Store) StoreTable(ctx context.Context, t *domain.Table) error {
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Version++

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", t.ID, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tableKey(t.ID), data, 0)
		pipe.ZAdd(ctx, s.activityKey(), redis.Z{Score: float64(now.Unix()), Member: t.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store table %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTable removes the table record and its activity entry.
func (s *Store) DeleteTable(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.tableKey(id))
		pipe.ZRem(ctx, s.activityKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", id, err)
	}
	return nil
}

// SetUserActiveTable records the table a user is seated at.
func (s *Store) SetUserActiveTable(ctx context.Context, userID, tableID string) error {
	if err := s.rdb.Set(ctx, s.userKey(userID), tableID, 0).Err(); err != nil {
		return fmt.Errorf("failed to index user %s: %w", userID, err)
	}
	return nil
}

// GetUserActiveTable returns the table a user is seated at, or ErrNotFound.
func (s *Store) GetUserActiveTable(ctx context.Context, userID string) (string, error) {
	id, err := s.rdb.Get(ctx, s.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read user %s index: %w", userID, err)
	}
	return id, nil
}

// releaseIndexScript deletes the key only while it still points at ARGV[1].
var releaseIndexScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseUserActiveTable removes the index entries of the given users that
// still point at tableID. Entries pointing at another table are kept.
// Keys are released one by one so the script never spans cluster slots.
func (s *Store) ReleaseUserActiveTable(ctx context.Context, tableID string, userIDs ...string) error {
	for _, uid := range userIDs {
		if err := releaseIndexScript.Run(ctx, s.rdb, []string{s.userKey(uid)}, tableID).Err(); err != nil {
			return fmt.Errorf("failed to release user index %s for table %s: %w", uid, tableID, err)
		}
	}
	return nil
}

// GetWaitingTable returns the open table id for a table type, or ErrNotFound.
func (s *Store) GetWaitingTable(ctx context.Context, typeID string) (string, error) {
	id, err := s.rdb.Get(ctx, s.waitingKey(typeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("waiting table for %s: %w", typeID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read waiting table for %s: %w", typeID, err)
	}
	return id, nil
}

// SetWaitingTable marks a table as the open table of its type.
func (s *Store) SetWaitingTable(ctx context.Context, typeID, tableID string) error {
	if err := s.rdb.Set(ctx, s.waitingKey(typeID), tableID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set waiting table for %s: %w", typeID, err)
	}
	return nil
}

// ClearWaitingTable removes the open slot only if it still points at tableID.
func (s *Store) ClearWaitingTable(ctx context.Context, typeID, tableID string) error {
	key := s.waitingKey(typeID)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) || (err == nil && cur != tableID) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to clear waiting table for %s: %w", typeID, err)
	}
	return nil
}

// ListTables returns every known table id ordered by last update, oldest first.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.ZRange(ctx, s.activityKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return ids, nil
}

// ListIdle returns ids of tables not updated since before.
func (s *Store) ListIdle(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, s.activityKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list idle tables: %w", err)
	}
	return ids, nil
}
