// Package userbackend provides an in-memory gatehouse.UserStore seeded from
// configuration. Users registered at runtime are lost on restart.
package userbackend

import (
	"context"
	"fmt"
	"sync"

	"github.com/sagarc03/gatehouse"
)

// MapStore keeps users in a map guarded by a RWMutex, so lookups never
// block each other.
type MapStore struct {
	mu    sync.RWMutex
	users map[string]gatehouse.Identity
}

// NewMapStore creates a store holding records. Later duplicates win.
func NewMapStore(records []UserRecord) *MapStore {
	users := make(map[string]gatehouse.Identity, len(records))
	for _, r := range records {
		users[r.Username] = gatehouse.Identity{
			Username:     r.Username,
			PasswordHash: r.PasswordHash,
			Disabled:     r.Disabled,
		}
	}
	return &MapStore{users: users}
}

// Lookup returns the user, or an error wrapping gatehouse.ErrNotFound.
func (s *MapStore) Lookup(ctx context.Context, username string) (gatehouse.Identity, error) {
	if err := ctx.Err(); err != nil {
		return gatehouse.Identity{}, err
	}

	s.mu.RLock()
	identity, found := s.users[username]
	s.mu.RUnlock()

	if !found {
		return gatehouse.Identity{}, fmt.Errorf("lookup %s: %w", username, gatehouse.ErrNotFound)
	}
	return identity, nil
}

// InsertIfAbsent adds identity unless its username is already taken.
func (s *MapStore) InsertIfAbsent(ctx context.Context, identity gatehouse.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[identity.Username]; exists {
		return fmt.Errorf("insert if absent %s: %w", identity.Username, gatehouse.ErrConflict)
	}
	s.users[identity.Username] = identity
	return nil
}

// Count returns the number of users.
func (s *MapStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}
