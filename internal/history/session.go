// Package history records resolved mood sessions, newest first.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"github.com/justestif/go-moodify/internal/mood"
)

// ErrSkippedRecords reports that Decode dropped malformed records.
var ErrSkippedRecords = errors.New("skipped malformed history records")

// timestampLayout matches JavaScript's Date.toISOString output.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Session is one resolved mood with the text that produced it. It is not
// modified after creation.
type Session struct {
	ID        uuid.UUID
	Mood      mood.Mood
	InputText string
	Timestamp time.Time
}

// NewSession creates a session stamped at now, truncated to milliseconds so
// that it survives serialization unchanged.
func NewSession(m mood.Mood, inputText string, now time.Time) Session {
	return Session{
		ID:        uuid.New(),
		Mood:      m,
		InputText: inputText,
		Timestamp: now.UTC().Truncate(time.Millisecond),
	}
}

// wireSession is the persisted form. id was added later and may be absent.
type wireSession struct {
	ID        string `json:"id,omitempty"`
	Mood      string `json:"mood"`
	InputText string `json:"inputText"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON encodes {id, mood, inputText, timestamp}.
func (s Session) MarshalJSON() ([]byte, error) {
	w := wireSession{
		Mood:      string(s.Mood),
		InputText: s.InputText,
		Timestamp: s.Timestamp.UTC().Format(timestampLayout),
	}
	if s.ID != uuid.Nil {
		w.ID = s.ID.String()
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a persisted session. Unknown moods become calm.
func (s *Session) UnmarshalJSON(data []byte) error {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", w.Timestamp, err)
	}

	var id uuid.UUID
	if w.ID != "" {
		id, err = uuid.Parse(w.ID)
		if err != nil {
			return fmt.Errorf("parsing id %q: %w", w.ID, err)
		}
	}

	*s = Session{
		ID:        id,
		Mood:      mood.Parse(w.Mood),
		InputText: w.InputText,
		Timestamp: ts.UTC(),
	}
	return nil
}

// Meta returns display metadata for the session's mood.
func (s Session) Meta() mood.Meta {
	return mood.Info(s.Mood)
}

// Encode serializes sessions as a JSON list in the given order.
func Encode(sessions []Session) ([]byte, error) {
	if sessions == nil {
		sessions = []Session{}
	}
	return json.Marshal(sessions)
}

// Decode parses a JSON list produced by Encode. Malformed records (null
// entries, bad timestamps or ids) are skipped: the remaining sessions are
// returned together with an error describing what was dropped. A document
// that is not a JSON list returns nil sessions.
func Decode(data []byte) ([]Session, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(raw))
	var errs []error
	for i, r := range raw {
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			errs = append(errs, fmt.Errorf("record %d: null", i))
			continue
		}
		var s Session
		if err := json.Unmarshal(r, &s); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		sessions = append(sessions, s)
	}
	if len(errs) > 0 {
		return sessions, fmt.Errorf("%w: %w", ErrSkippedRecords, errors.Join(errs...))
	}
	return sessions, nil
}

// Preview shortens text to at most n user-perceived characters, appending an
// ellipsis when it cuts. Emoji and combining marks are never split.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || uniseg.GraphemeClusterCount(text) <= n {
		return text
	}

	var sb strings.Builder
	g := uniseg.NewGraphemes(text)
	for i := 0; i < n && g.Next(); i++ {
		sb.WriteString(g.Str())
	}
	return strings.TrimRight(sb.String(), " ") + "…"
}
