// Package flow turns a mood selection or free text into a recorded session
// and a playlist recommendation.
package flow

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
)

// State is a step of a single recommendation request.
type State int

const (
	Idle State = iota
	Classifying
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Classifying:
		return "classifying"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Prompt asks the user for more input.
type Prompt struct {
	Title       string
	Description string
}

// MissingInput is shown when neither a mood nor text was given.
var MissingInput = Prompt{
	Title:       "Please select a mood or describe your feelings",
	Description: "We need to know how you're feeling to create your perfect playlist!",
}

// Input is what the user submitted. Mood or Emoji, when set, wins over Text.
type Input struct {
	Mood     string
	Emoji    string
	Text     string
	Language string
}

// Result is the outcome of Run or Replay.
type Result struct {
	State     State
	Mood      mood.Mood
	Meta      mood.Meta
	InputText string
	Language  playlist.Language
	Playlist  playlist.Entry
	Session   history.Session
	Prompt    *Prompt
	ShareText string
	SharePath string
}

// Transition is reported to observers on every state change.
type Transition struct {
	From, To State
	Input    Input
	Mood     mood.Mood
}

// Observer receives transitions and the final session of resolved runs.
type Observer interface {
	Transition(ctx context.Context, t Transition)
	Appended(ctx context.Context, s history.Session)
}

// Option configures a Flow.
type Option func(*Flow)

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(f *Flow) {
		f.observers = append(f.observers, o)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.log = l
		}
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// WithBaseURL sets the public origin used in share text, e.g.
// "https://moodify.example".
func WithBaseURL(u string) Option {
	return func(f *Flow) {
		f.baseURL = strings.TrimRight(u, "/")
	}
}

// Flow runs recommendation requests against one history store.
type Flow struct {
	classifier classifier.Classifier
	source     *playlist.Source
	store      *history.Store
	observers  []Observer
	log        *zap.Logger
	now        func() time.Time
	baseURL    string
}

// New creates a Flow.
func New(c classifier.Classifier, source *playlist.Source, store *history.Store, opts ...Option) *Flow {
	f := &Flow{
		classifier: c,
		source:     source,
		store:      store,
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run resolves the input to a mood, records a session and picks a playlist.
// Missing input returns an Idle result with a prompt and records nothing.
// A failed history write is logged and the run still resolves.
func (f *Flow) Run(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	m, explicit := explicitMood(in)

	if !explicit && text == "" {
		return Result{State: Idle, Prompt: &MissingInput}, nil
	}

	if !explicit {
		f.transition(ctx, Transition{From: Idle, To: Classifying, Input: in})

		var err error
		m, err = f.classifier.Classify(ctx, text)
		if err != nil {
			f.log.Warn("classification failed, using default mood", zap.Error(err))
			m = mood.Default
		}
		if !m.Valid() {
			m = mood.Default
		}
		f.transition(ctx, Transition{From: Classifying, To: Resolved, Input: in, Mood: m})
	} else {
		f.transition(ctx, Transition{From: Idle, To: Resolved, Input: in, Mood: m})
	}

	// An explicit pick discards any typed text.
	inputText := in.Text
	if explicit {
		inputText = ""
	}

	session := history.NewSession(m, inputText, f.now())
	if err := f.store.Append(ctx, session); err != nil {
		f.log.Error("recording session failed",
			zap.String("mood", m.String()),
			zap.Error(err),
		)
	} else {
		for _, o := range f.observers {
			o.Appended(ctx, session)
		}
	}

	res := f.resolve(m, inputText, playlist.ParseLanguage(in.Language))
	res.Session = session
	return res, nil
}

// Replay renders a stored session again without recording anything.
func (f *Flow) Replay(s history.Session, lang playlist.Language) Result {
	res := f.resolve(s.Mood, s.InputText, lang)
	res.Session = s
	return res
}

// Resolve renders a result for a known mood without recording anything. Used
// by the results page, which receives the mood in its query string.
func (f *Flow) Resolve(m mood.Mood, inputText string, lang playlist.Language) Result {
	return f.resolve(m, inputText, lang)
}

func (f *Flow) resolve(m mood.Mood, inputText string, lang playlist.Language) Result {
	if !m.Valid() {
		m = mood.Default
	}
	path := SharePath(m, inputText)
	return Result{
		State:     Resolved,
		Mood:      m,
		Meta:      mood.Info(m),
		InputText: inputText,
		Language:  lang,
		Playlist:  f.source.Lookup(m, lang),
		ShareText: ShareText(m, f.baseURL+path),
		SharePath: path,
	}
}

func (f *Flow) transition(ctx context.Context, t Transition) {
	f.log.Debug("flow transition",
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
		zap.String("mood", t.Mood.String()),
	)
	for _, o := range f.observers {
		o.Transition(ctx, t)
	}
}

// explicitMood returns the mood chosen directly by name or emoji. An
// unrecognized name still counts as a choice and resolves to the default.
func explicitMood(in Input) (mood.Mood, bool) {
	if strings.TrimSpace(in.Mood) != "" {
		return mood.Parse(in.Mood), true
	}
	if strings.TrimSpace(in.Emoji) != "" {
		return mood.FromEmoji(in.Emoji)
	}
	return "", false
}

// ShareText is the message offered when sharing a result.
func ShareText(m mood.Mood, link string) string {
	return fmt.Sprintf("Check out my %s mood playlist on Moodify! 🎵 %s", m, link)
}

// SharePath is the results page location for a mood and its input text.
func SharePath(m mood.Mood, inputText string) string {
	return "/playlist?mood=" + escape(string(m)) + "&input=" + escape(inputText)
}

// escape percent-encodes s for a query value, writing spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
