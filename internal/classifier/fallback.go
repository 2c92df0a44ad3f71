package classifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/mood"
)

// DefaultTimeout bounds a single networked classification.
const DefaultTimeout = 5 * time.Second

// Fallback wraps a classifier and never returns an error. Failures, panics
// and timeouts are logged and answered by the secondary classifier, if any,
// and otherwise by calm.
type Fallback struct {
	primary   Classifier
	secondary Classifier
	timeout   time.Duration
	log       *zap.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithSecondary sets the classifier consulted when the primary fails.
func WithSecondary(c Classifier) FallbackOption {
	return func(f *Fallback) {
		f.secondary = c
	}
}

// WithTimeout bounds each primary call. Zero disables the bound.
func WithTimeout(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		if d >= 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) FallbackOption {
	return func(f *Fallback) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFallback wraps primary.
func NewFallback(primary Classifier, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary: primary,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Classify returns the primary's mood, the secondary's on failure, or calm.
// The returned error is always nil.
func (f *Fallback) Classify(ctx context.Context, text string) (mood.Mood, error) {
	m, err := f.call(ctx, f.primary, f.timeout, text)
	if err == nil {
		return m, nil
	}
	f.log.Warn("mood classification failed", zap.Error(err), zap.Int("input_len", len(text)))

	if f.secondary != nil {
		// The secondary is local; it still answers after the caller's deadline.
		m, err := f.call(context.WithoutCancel(ctx), f.secondary, 0, text)
		if err == nil {
			return m, nil
		}
		f.log.Warn("secondary mood classification failed", zap.Error(err))
	}

	return mood.Default, nil
}

type outcome struct {
	mood mood.Mood
	err  error
}

// call runs c with an optional timeout. The call runs on its own goroutine so
// an implementation that ignores ctx still cannot hold up the caller.
func (f *Fallback) call(ctx context.Context, c Classifier, timeout time.Duration, text string) (mood.Mood, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		m, err := c.Classify(ctx, text)
		done <- outcome{mood: m, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return mood.Default, out.err
		}
		if !out.mood.Valid() {
			return mood.Default, fmt.Errorf("%w: %q", ErrUnknownMood, out.mood)
		}
		return out.mood, nil
	case <-ctx.Done():
		return mood.Default, fmt.Errorf("classification aborted: %w", ctx.Err())
	}
}
