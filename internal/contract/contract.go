// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/codemetrics/codemetrics/schema"
)

// Runner executes external programs such as the SCM clients and cloc.
// This allows collectors to be tested without the real executables.
type Runner interface {
	// Run executes argv in cwd and returns the captured standard output.
	// It fails with ErrExecutableNotFound when argv[0] cannot be found and
	// with a *ProcessError when the process exits non-zero.
	Run(ctx context.Context, argv []string, cwd string) (string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetLogStore() CacheStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}
