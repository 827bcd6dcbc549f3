// Package memory implements an in-memory credential store backed by
// go-cache. It is the development and test driver; records do not
// survive a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/postbridge/connect/internal/domain/repository"
	"github.com/postbridge/connect/internal/store"
)

func init() {
	store.Register("memory", func(ctx context.Context, cfg store.Config) (repository.CredentialStore, error) {
		return New(), nil
	})
}

// Store is the in-memory credential store.
type Store struct {
	mu    sync.Mutex
	cache *gocache.Cache
	now   func() time.Time
}

var _ repository.CredentialStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		cache: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

func key(userID string, platform repository.Platform) string {
	return userID + "|" + string(platform)
}

// Upsert inserts or replaces the record for (UserID, Platform),
// preserving ID and CreatedAt of an existing record.
func (s *Store) Upsert(ctx context.Context, cred *repository.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *cred
	k := key(cred.UserID, cred.Platform)
	if prev, ok := s.cache.Get(k); ok {
		existing := prev.(repository.Credential)
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.NewString()
		stored.CreatedAt = s.now().UTC()
	}
	s.cache.Set(k, stored, gocache.NoExpiration)
	return nil
}

// List returns every record for the user; empty slice when none exist.
func (s *Store) List(ctx context.Context, userID string) ([]repository.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := []repository.Credential{}
	prefix := userID + "|"
	for k, item := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			creds = append(creds, item.Object.(repository.Credential))
		}
	}
	return creds, nil
}

// Get returns the record for the pair, or repository.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string, platform repository.Platform) (*repository.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key(userID, platform))
	if !ok {
		return nil, repository.ErrNotFound
	}
	cred := v.(repository.Credential)
	return &cred, nil
}

// Delete removes the record if present; no-op otherwise.
func (s *Store) Delete(ctx context.Context, userID string, platform repository.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(key(userID, platform))
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
