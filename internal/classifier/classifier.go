// Package classifier maps free-form text to a mood.
//
// The keyword classifier is a fixed, ordered rule table. Networked
// classifiers implement the same interface and are wrapped in a Fallback so
// that callers always receive a mood.
package classifier

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/mood"
)

// ErrUnknownMood is returned when a classifier produces a mood outside the taxonomy.
var ErrUnknownMood = errors.New("unknown mood")

// Classifier resolves text to a mood. Implementations may block and must
// honor ctx cancellation.
type Classifier interface {
	Classify(ctx context.Context, text string) (mood.Mood, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, text string) (mood.Mood, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, text string) (mood.Mood, error) {
	return f(ctx, text)
}

// Kind names a classifier implementation.
type Kind string

// Available classifier kinds.
const (
	KindKeyword Kind = "keyword"
	KindOpenAI  Kind = "openai"
)

// Options configures New.
type Options struct {
	Kind    Kind
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New builds the configured classifier. The result never returns an error
// from Classify: anything other than the keyword classifier is wrapped in a
// Fallback that degrades to keyword matching and then to calm.
func New(opts Options) (Classifier, error) {
	keyword := NewKeyword()

	switch opts.Kind {
	case "", KindKeyword:
		return NewFallback(keyword, WithLogger(opts.Logger)), nil
	case KindOpenAI:
		ai, err := NewOpenAI(opts.APIKey, opts.Model, WithBaseURL(opts.BaseURL))
		if err != nil {
			return nil, err
		}
		return NewFallback(ai,
			WithSecondary(keyword),
			WithTimeout(opts.Timeout),
			WithLogger(opts.Logger),
		), nil
	default:
		return nil, errors.New("unknown classifier kind: " + string(opts.Kind))
	}
}
