package journey

import (
	"slices"

	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/mood"
)

// phaseName names a centroid by its energy/valence quadrant.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat"
//   - High Energy + Low Valence  = "Intense"
//   - Low Energy  + High Valence = "Mellow"
//   - Low Energy  + Low Valence  = "Reflective"
func phaseName(c Point) string {
	highEnergy := c.Energy > 0.6
	highValence := c.Valence > 0.5

	switch {
	case highEnergy && highValence:
		return "Upbeat"
	case highEnergy && !highValence:
		return "Intense"
	case !highEnergy && highValence:
		return "Mellow"
	default:
		return "Reflective"
	}
}

func describe(c Point) string {
	switch phaseName(c) {
	case "Upbeat":
		return "High-energy, positive stretch"
	case "Intense":
		return "Driving energy with a darker edge"
	case "Mellow":
		return "Relaxed and content"
	default:
		return "Quiet and introspective"
	}
}

// Counts is how often each mood occurs.
type Counts map[mood.Mood]int

// MoodCount is one entry of Counts.Sorted.
type MoodCount struct {
	Mood  mood.Mood
	Count int
}

// Summary counts the moods in sessions.
func Summary(sessions []history.Session) Counts {
	c := make(Counts)
	for _, s := range sessions {
		m := s.Mood
		if !m.Valid() {
			m = mood.Default
		}
		c[m]++
	}
	return c
}

// Total returns the number of sessions counted.
func (c Counts) Total() int {
	var n int
	for _, v := range c {
		n += v
	}
	return n
}

// Sorted returns non-zero counts, most frequent first. Ties keep the
// canonical mood order.
func (c Counts) Sorted() []MoodCount {
	var out []MoodCount
	for _, m := range mood.All() {
		if n := c[m]; n > 0 {
			out = append(out, MoodCount{Mood: m, Count: n})
		}
	}
	slices.SortStableFunc(out, func(a, b MoodCount) int {
		return b.Count - a.Count
	})
	return out
}

// Dominant returns the most frequent mood, or mood.Default when empty.
func (c Counts) Dominant() mood.Mood {
	sorted := c.Sorted()
	if len(sorted) == 0 {
		return mood.Default
	}
	return sorted[0].Mood
}
