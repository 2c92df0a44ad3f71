package storage

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/justestif/go-moodify/internal/db"
)

// Postgres stores slots in the storage_slots table.
type Postgres struct {
	database *db.DB
	closed   atomic.Bool
}

// NewPostgres wraps an open database. Close closes the database.
func NewPostgres(database *db.DB) *Postgres {
	return &Postgres{database: database}
}

// Get loads the slot value.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if p.closed.Load() {
		return nil, false, ErrClosed
	}
	slot, err := p.database.Slots().Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return slot.Value, true, nil
}

// Set upserts the whole slot value.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.database.Slots().Put(ctx, key, value)
}

// Delete removes the slot.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.database.Slots().Delete(ctx, key)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.database.Close()
	}
	return nil
}
