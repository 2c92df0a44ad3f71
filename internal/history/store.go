package history

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/storage"
)

// DefaultKey is the storage key of the single-user history.
const DefaultKey = "moodSessions"

// DefaultLimit caps how many sessions are kept. Older sessions are dropped
// on append.
const DefaultLimit = 500

// Option configures a Manager.
type Option func(*Manager)

// WithLimit sets the maximum number of sessions kept per key. n <= 0 keeps
// everything.
func WithLimit(n int) Option {
	return func(m *Manager) {
		m.limit = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager hands out history stores sharing one storage backend. Stores for
// the same key share a lock, so concurrent appends do not lose sessions.
type Manager struct {
	backend storage.Backend
	limit   int
	log     *zap.Logger
	locks   sync.Map // key -> *sync.Mutex
}

// NewManager creates a Manager over backend.
func NewManager(backend storage.Backend, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		limit:   DefaultLimit,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the history stored under key.
func (m *Manager) Store(key string) *Store {
	lock, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return &Store{
		backend: m.backend,
		key:     key,
		limit:   m.limit,
		log:     m.log.With(zap.String("history_key", key)),
		mu:      lock.(*sync.Mutex),
	}
}

// New returns a store for key on backend.
func New(backend storage.Backend, key string, opts ...Option) *Store {
	return NewManager(backend, opts...).Store(key)
}

// Store is an ordered list of sessions kept in a single storage slot.
// Every write replaces the whole slot.
type Store struct {
	backend storage.Backend
	key     string
	limit   int
	log     *zap.Logger
	mu      *sync.Mutex
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Append puts session at the front of the list and writes the list back.
// Unreadable existing data is replaced.
func (s *Store) Append(ctx context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.load(ctx)

	sessions := make([]Session, 0, len(existing)+1)
	sessions = append(sessions, session)
	sessions = append(sessions, existing...)
	if s.limit > 0 && len(sessions) > s.limit {
		sessions = sessions[:s.limit]
	}

	data, err := Encode(sessions)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// List returns the sessions, newest first. Missing or unreadable storage
// yields an empty list.
func (s *Store) List(ctx context.Context) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Clear deletes every session. Clearing an empty history is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) []Session {
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("reading history failed, treating as empty", zap.Error(err))
		return []Session{}
	}
	if !ok {
		return []Session{}
	}

	sessions, err := Decode(data)
	if sessions == nil {
		s.log.Warn("history data is corrupt, treating as empty", zap.Error(err))
		return []Session{}
	}
	if err != nil {
		s.log.Warn("skipping malformed history records", zap.Error(err))
	}
	return sessions
}
