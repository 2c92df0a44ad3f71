package db

import "time"

// Slot is a keyed JSON document that is always written as a whole.
type Slot struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}
