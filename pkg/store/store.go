// Package store persists encoded graph documents under validated names.
//
// Stores deal in raw document bytes as produced by the io package; they never
// parse them. Three backends are provided:
//
//   - [FileStore]: one JSON file per graph in a directory (the default)
//   - [RedisStore]: string keys plus a sorted-set index, for shared setups
//   - [MongoStore]: one document per graph in a MongoDB collection
//
// Every backend validates names with [errors.ValidateGraphName] and reports
// missing graphs with [ErrNotFound].
package store

import (
	"context"
	"slices"
	"strings"
	"time"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

// ErrNotFound is returned when no graph is stored under the requested name.
var ErrNotFound = apperr.New(apperr.ErrCodeNotFound, "graph not found")

// Info describes a stored graph.
type Info struct {
	Name      string
	UpdatedAt time.Time
}

// Store is a named collection of graph documents.
type Store interface {
	// Get returns the document stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put stores data under name, replacing any previous document.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the document stored under name, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List returns every stored graph ordered by name.
	List(ctx context.Context) ([]Info, error)

	// Close releases backend resources.
	Close() error
}

func sortInfos(infos []Info) {
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
}
