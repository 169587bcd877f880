// Package store is the background context's durable key/value storage.
// Values are JSON encoded; multi-key updates run in a single transaction.
package store

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyScans   = "scans"
	KeyBlocked = "blocked"
)

// TabAnalysisKey is the key of the cached analysis for a browser tab.
func TabAnalysisKey(tabID string) string {
	return "analysis_" + tabID
}

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// Tx reads and writes keys inside one atomic update.
type Tx interface {
	Get(key string, dst any) error
	Set(key string, value any) error
}

// Store is durable key/value storage.
type Store interface {
	// Get decodes the value of key into dst or returns ErrNotFound.
	Get(ctx context.Context, key string, dst any) error

	// Update runs fn in a transaction; all Sets commit together or not at all.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// SetIfAbsent writes value only when key is unset and reports whether it wrote.
	SetIfAbsent(ctx context.Context, key string, value any) (bool, error)

	Close() error
}
