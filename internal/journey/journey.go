// Package journey groups a mood history into phases using k-means clustering
// over each mood's energy and valence.
package journey

import (
	"fmt"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/mood"
)

// Config holds clustering parameters.
type Config struct {
	NumPhases    int     // Number of clusters to create (default: 3)
	MinPhaseSize int     // Minimum sessions per phase (smaller clusters become outliers)
	TimeWeight   float64 // Weight of the session's position in time, 0 ignores time
	Logger       *zap.Logger
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumPhases:    3,
		MinPhaseSize: 2,
		TimeWeight:   0.5,
	}
}

// Phase is a run of sessions with a similar emotional tone.
type Phase struct {
	Name     string            // Quadrant name: "Upbeat", "Intense", "Mellow" or "Reflective"
	Sessions []history.Session // Oldest first
	Dominant mood.Mood         // Most frequent mood in the phase
	Centroid Point
	Start    time.Time
	End      time.Time
}

// Point is a position on the energy/valence plane.
type Point struct {
	Energy  float64
	Valence float64
}

// Title returns the phase name with its date range.
func (p Phase) Title() string {
	return formatPhaseTitle(p.Name, p.Start, p.End)
}

// Description describes the phase's quadrant.
func (p Phase) Description() string {
	return describe(p.Centroid)
}

// sessionObservation wraps a Session to implement clusters.Observation.
type sessionObservation struct {
	session history.Session
	coords  clusters.Coordinates
}

func (o sessionObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o sessionObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectPhases groups sessions by emotional similarity and closeness in time.
// Returns phases (most recent first) and the sessions that fit no phase.
func DetectPhases(sessions []history.Session, cfg Config) ([]Phase, []history.Session) {
	if len(sessions) == 0 {
		return nil, nil
	}

	if cfg.NumPhases <= 0 {
		cfg.NumPhases = DefaultConfig().NumPhases
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(sessions) < cfg.NumPhases {
		return nil, slices.Clone(sessions)
	}

	first, last := timeSpan(sessions)

	var obs clusters.Observations
	for _, s := range sessions {
		obs = append(obs, sessionObservation{
			session: s,
			coords:  coordinates(s, first, last, cfg.TimeWeight),
		})
	}

	result, err := kmeans.New().Partition(obs, cfg.NumPhases)
	if err != nil {
		log.Warn("k-means clustering failed", zap.Error(err))
		return nil, slices.Clone(sessions)
	}

	var phases []Phase
	var outliers []history.Session

	for _, cluster := range result {
		var members []history.Session
		for _, o := range cluster.Observations {
			if so, ok := o.(sessionObservation); ok {
				members = append(members, so.session)
			}
		}

		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinPhaseSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortFunc(members, func(a, b history.Session) int {
			return a.Timestamp.Compare(b.Timestamp)
		})

		centroid := meanPoint(members)
		phases = append(phases, Phase{
			Name:     phaseName(centroid),
			Sessions: members,
			Dominant: Summary(members).Dominant(),
			Centroid: centroid,
			Start:    members[0].Timestamp,
			End:      members[len(members)-1].Timestamp,
		})
	}

	slices.SortFunc(phases, func(a, b Phase) int {
		return b.Start.Compare(a.Start)
	})
	slices.SortFunc(outliers, func(a, b history.Session) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return phases, outliers
}

// coordinates places a session at its mood's energy and valence, plus its
// relative position between first and last scaled by timeWeight.
func coordinates(s history.Session, first, last time.Time, timeWeight float64) clusters.Coordinates {
	meta := mood.Info(s.Mood)
	var pos float64
	if span := last.Sub(first); span > 0 {
		pos = float64(s.Timestamp.Sub(first)) / float64(span)
	}
	return clusters.Coordinates{meta.Energy, meta.Valence, pos * timeWeight}
}

// meanPoint averages the members' mood positions. The k-means center is not
// used because it keeps its random seed when no point ever changes cluster.
func meanPoint(members []history.Session) Point {
	var p Point
	for _, s := range members {
		meta := mood.Info(s.Mood)
		p.Energy += meta.Energy
		p.Valence += meta.Valence
	}
	n := float64(len(members))
	return Point{Energy: p.Energy / n, Valence: p.Valence / n}
}

func timeSpan(sessions []history.Session) (first, last time.Time) {
	first, last = sessions[0].Timestamp, sessions[0].Timestamp
	for _, s := range sessions[1:] {
		if s.Timestamp.Before(first) {
			first = s.Timestamp
		}
		if s.Timestamp.After(last) {
			last = s.Timestamp
		}
	}
	return first, last
}

// formatPhaseTitle combines a phase name with date range.
func formatPhaseTitle(name string, start, end time.Time) string {
	const dateFormat = "Jan 2, 2006"
	startStr := start.Format(dateFormat)
	endStr := end.Format(dateFormat)

	if startStr == endStr {
		return fmt.Sprintf("%s: %s", name, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", name, startStr, endStr)
}
