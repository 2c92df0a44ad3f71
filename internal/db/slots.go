package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotRepository handles storage slot database operations.
type SlotRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves a slot by key.
func (r *SlotRepository) Get(ctx context.Context, key string) (*Slot, error) {
	query := `
		SELECT key, value::text, updated_at
		FROM storage_slots
		WHERE key = $1
	`
	var (
		slot  Slot
		value string
	)
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&slot.Key,
		&value,
		&slot.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying slot: %w", err)
	}
	slot.Value = []byte(value)
	return &slot, nil
}

// Put creates or replaces the value of a slot.
func (r *SlotRepository) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storage_slots (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, key, string(value))
	if err != nil {
		return fmt.Errorf("upserting slot: %w", err)
	}
	return nil
}

// Delete removes a slot by key.
func (r *SlotRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM storage_slots WHERE key = $1`
	_, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("deleting slot: %w", err)
	}
	return nil
}
