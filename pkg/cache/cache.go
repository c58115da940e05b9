// Package cache stores rendered artifacts keyed by the content they were
// produced from.
//
// Rendering a graph through Graphviz is the slowest thing the CLI does, and
// the output depends only on the encoded document and the render options. The
// render command hashes both with [ArtifactKey] and consults a [Cache] before
// invoking Graphviz.
//
// Three implementations are provided:
//   - [FileCache]: entries as files under the user cache directory
//   - [RedisCache]: entries in Redis, shared with a Redis-backed store
//   - [NullCache]: never stores anything, for --no-cache
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the cached value and whether it was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// ArtifactKeyOpts are the render options that affect an artifact's bytes.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
	Labels bool    `json:"labels"`
}

// ArtifactKey returns the cache key for rendering the document with the given
// content hash using opts.
func ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
