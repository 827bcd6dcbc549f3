// Package store selects and opens the credential store adapter.
//
// Adapters register themselves via init(), so the binary chooses its
// backends by importing the adapter packages with a blank identifier:
//
//	_ "github.com/postbridge/connect/internal/store/pg"
//	_ "github.com/postbridge/connect/internal/store/memory"
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/postbridge/connect/internal/domain/repository"
)

// Config selects and configures a store adapter.
type Config struct {
	// Driver names the adapter: "postgres" or "memory".
	Driver string
	// DSN is the storage location; ignored by the memory adapter.
	DSN string
}

// Opener creates a ready-to-use credential store.
type Opener func(ctx context.Context, cfg Config) (repository.CredentialStore, error)

var (
	mu      sync.RWMutex
	openers = make(map[string]Opener)
)

// Register makes an adapter available under the given driver name.
// Called from adapter init() functions.
func Register(driver string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[driver] = open
}

// Open creates the credential store for cfg.Driver.
func Open(ctx context.Context, cfg Config) (repository.CredentialStore, error) {
	mu.RLock()
	open, ok := openers[cfg.Driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Driver, Drivers())
	}
	return open(ctx, cfg)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
