// Package cache provides a byte cache for commit snapshots.
//
// Commits are immutable, so a snapshot cached under its commit id never
// needs invalidation; the only reason to evict is memory pressure. The store
// uses this cache to skip decompression on repeated loads of the same
// commit.
package cache

import "context"

// Cache stores byte payloads under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second result reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any held resources.
	Close() error
}
