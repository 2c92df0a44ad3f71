package command

import (
	"charm.land/lipgloss/v2"

	"github.com/justestif/go-moodify/internal/mood"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8FB5"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5484D")).Bold(true)
)

var moodColors = map[mood.Mood]string{
	mood.Happy:     "#FFD166",
	mood.Sad:       "#5DA9E9",
	mood.Calm:      "#7BD389",
	mood.Anxious:   "#C8A2FF",
	mood.Angry:     "#EF476F",
	mood.Romantic:  "#FF8FAB",
	mood.Energetic: "#FF9F1C",
}

func moodStyle(m mood.Mood) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(moodColors[mood.Info(m).Mood]))
}

// moodLabel renders "emoji Label" in the mood's color.
func moodLabel(m mood.Mood) string {
	meta := mood.Info(m)
	return meta.Emoji + " " + moodStyle(m).Bold(true).Render(meta.Label)
}
