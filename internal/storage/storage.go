// Package storage provides keyed slots that hold whole serialized values.
//
// A slot is read and written as a unit; there is no partial update. The
// history store builds its read-modify-write cycle on top of this.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justestif/go-moodify/internal/db"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage closed")

// Backend stores opaque values under string keys.
type Backend interface {
	// Get returns the value for key. ok is false if no value is stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set replaces the whole value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Kind names a backend implementation.
type Kind string

// Backend kinds.
const (
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindPostgres Kind = "postgres"
)

// Options configures Open.
type Options struct {
	Kind        Kind
	Dir         string // file backend directory
	DatabaseURL string // postgres connection string
}

// Open creates the configured backend. The postgres backend creates its
// table if needed.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case "", KindMemory:
		return NewMemory(), nil
	case KindFile:
		return NewFile(opts.Dir)
	case KindPostgres:
		database, err := db.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		return NewPostgres(database), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", opts.Kind)
	}
}
