// Package mood defines the fixed set of moods Moodify recognizes and their display metadata.
package mood

import "strings"

// Mood is one of the seven supported emotional categories.
type Mood string

// Supported moods.
const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Calm      Mood = "calm"
	Anxious   Mood = "anxious"
	Angry     Mood = "angry"
	Romantic  Mood = "romantic"
	Energetic Mood = "energetic"
)

// Default is used wherever a mood is missing or unrecognized.
const Default = Calm

// all lists moods in canonical order. Classification rules are evaluated in
// this order and the mood picker renders in it.
var all = []Mood{Happy, Sad, Calm, Anxious, Angry, Romantic, Energetic}

// All returns the supported moods in canonical order.
func All() []Mood {
	out := make([]Mood, len(all))
	copy(out, all)
	return out
}

// Lookup returns the mood named by s, ignoring case and surrounding space.
func Lookup(s string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metadata[m]; ok {
		return m, true
	}
	return Default, false
}

// Parse returns the mood named by s, or Default when s is empty or unknown.
func Parse(s string) Mood {
	m, _ := Lookup(s)
	return m
}

// FromEmoji returns the mood selected by one of the picker emoji.
func FromEmoji(e string) (Mood, bool) {
	e = strings.TrimSpace(e)
	for _, m := range all {
		if metadata[m].Emoji == e {
			return m, true
		}
	}
	return Default, false
}

// Valid reports whether m is one of the supported moods.
func (m Mood) Valid() bool {
	_, ok := metadata[m]
	return ok
}

func (m Mood) String() string {
	return string(m)
}

// Label returns the capitalized display label, e.g. "Happy".
func (m Mood) Label() string {
	return Info(m).Label
}
