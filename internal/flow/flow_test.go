package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
	"github.com/justestif/go-moodify/internal/storage"
)

var fixedNow = time.Date(2024, 2, 14, 20, 0, 0, 0, time.UTC)

type recorder struct {
	mu          sync.Mutex
	transitions []Transition
	appended    []history.Session
}

func (r *recorder) Transition(_ context.Context, t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recorder) Appended(_ context.Context, s history.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, s)
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, t := range r.transitions {
		out = append(out, t.To)
	}
	return out
}

type fixture struct {
	flow  *Flow
	store *history.Store
	rec   *recorder
}

func newFixture(t *testing.T, c classifier.Classifier, backend storage.Backend) fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := history.New(backend, history.DefaultKey, history.WithLogger(log))
	rec := &recorder{}
	f := New(c, playlist.NewSource(playlist.Default(), log), store,
		WithObserver(rec),
		WithLogger(log),
		WithClock(func() time.Time { return fixedNow }),
		WithBaseURL("https://moodify.example/"),
	)
	return fixture{flow: f, store: store, rec: rec}
}

func TestRunExplicitMood(t *testing.T) {
	ctx := context.Background()
	called := false
	c := classifier.Func(func(context.Context, string) (mood.Mood, error) {
		called = true
		return mood.Angry, nil
	})
	fx := newFixture(t, c, storage.NewMemory())

	res, err := fx.flow.Run(ctx, Input{Mood: "happy", Text: "I'm so mad"})
	require.NoError(t, err)

	assert.False(t, called, "explicit mood must not be classified")
	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, mood.Happy, res.Mood)
	assert.Equal(t, "Happy Hits", res.Playlist.Title)
	assert.Equal(t, []State{Resolved}, fx.rec.states())

	sessions := fx.store.List(ctx)
	require.Len(t, sessions, 1)
	assert.Equal(t, mood.Happy, sessions[0].Mood)
	assert.Empty(t, sessions[0].InputText, "explicit pick must not keep typed text")
	assert.Empty(t, res.InputText)
	assert.NotContains(t, res.SharePath, "mad")
	assert.Equal(t, fixedNow, sessions[0].Timestamp)
	assert.Equal(t, sessions, fx.rec.appended)
}

func TestRunEmoji(t *testing.T) {
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	res, err := fx.flow.Run(context.Background(), Input{Emoji: "💖"})
	require.NoError(t, err)
	assert.Equal(t, mood.Romantic, res.Mood)
	assert.Equal(t, "Feel the Love", res.Playlist.Title)
}

func TestRunClassifiesText(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	res, err := fx.flow.Run(ctx, Input{Text: "So stressed about exams", Language: "hindi"})
	require.NoError(t, err)

	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, mood.Anxious, res.Mood)
	assert.Equal(t, playlist.Hindi, res.Language)
	assert.Equal(t, "De-stress Lo-fi", res.Playlist.Title, "missing language falls back to english")
	assert.Equal(t, []State{Classifying, Resolved}, fx.rec.states())
	assert.Equal(t, "/playlist?mood=anxious&input=So%20stressed%20about%20exams", res.SharePath)
	assert.Equal(t,
		"Check out my anxious mood playlist on Moodify! 🎵 https://moodify.example/playlist?mood=anxious&input=So%20stressed%20about%20exams",
		res.ShareText)
	assert.Len(t, fx.store.List(ctx), 1)
}

func TestRunMissingInput(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	for _, in := range []Input{{}, {Text: "   \n\t"}, {Emoji: "🙂"}} {
		res, err := fx.flow.Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, Idle, res.State)
		require.NotNil(t, res.Prompt)
		assert.Equal(t, MissingInput.Title, res.Prompt.Title)
	}

	assert.Empty(t, fx.store.List(ctx), "nothing is recorded without input")
	assert.Empty(t, fx.rec.transitions)
}

func TestRunUnknownExplicitMoodIsCalm(t *testing.T) {
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	res, err := fx.flow.Run(context.Background(), Input{Mood: "melancholy"})
	require.NoError(t, err)
	assert.Equal(t, mood.Calm, res.Mood)
}

func TestRunClassifierFailureIsCalm(t *testing.T) {
	tests := []struct {
		name string
		c    classifier.Classifier
	}{
		{
			name: "error",
			c: classifier.Func(func(context.Context, string) (mood.Mood, error) {
				return "", errors.New("boom")
			}),
		},
		{
			name: "invalid mood",
			c: classifier.Func(func(context.Context, string) (mood.Mood, error) {
				return "ecstatic", nil
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.c, storage.NewMemory())
			res, err := fx.flow.Run(context.Background(), Input{Text: "whatever"})
			require.NoError(t, err)
			assert.Equal(t, mood.Calm, res.Mood)
			assert.Equal(t, Resolved, res.State)
		})
	}
}

type brokenBackend struct {
	*storage.Memory
}

func (brokenBackend) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestRunAppendFailureStillResolves(t *testing.T) {
	fx := newFixture(t, classifier.NewKeyword(), brokenBackend{storage.NewMemory()})

	res, err := fx.flow.Run(context.Background(), Input{Text: "so happy today"})
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, mood.Happy, res.Mood)
	assert.Empty(t, fx.rec.appended)
}

func TestReplayDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	s := history.NewSession(mood.Sad, "rainy", fixedNow)
	res := fx.flow.Replay(s, playlist.English)

	assert.Equal(t, mood.Sad, res.Mood)
	assert.Equal(t, "Rainy Day Chill", res.Playlist.Title)
	assert.Equal(t, s, res.Session)
	assert.Empty(t, fx.store.List(ctx))
}

func TestResolveUnknownMood(t *testing.T) {
	fx := newFixture(t, classifier.NewKeyword(), storage.NewMemory())

	res := fx.flow.Resolve("nope", "", playlist.English)
	assert.Equal(t, mood.Calm, res.Mood)
	assert.Equal(t, "Calm Vibes", res.Playlist.Title)
}

func TestSharePathEscaping(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "", want: "/playlist?mood=happy&input="},
		{text: "a&b=c", want: "/playlist?mood=happy&input=a%26b%3Dc"},
		{text: "1+1", want: "/playlist?mood=happy&input=1%2B1"},
		{text: "love 💖", want: "/playlist?mood=happy&input=love%20%F0%9F%92%96"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, SharePath(mood.Happy, tt.text))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "classifying", Classifying.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "State(7)", State(7).String())
}
