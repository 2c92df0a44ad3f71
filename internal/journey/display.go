package journey

import (
	"fmt"
	"strings"

	"github.com/justestif/go-moodify/internal/history"
)

const (
	samplePreviewCount = 3
	previewLength      = 40
)

// FormatSummary returns a human-readable summary of detected phases.
// Shows the date range, session count, dominant mood and the first 3 inputs
// of each phase. Outliers are summarized by count only.
func FormatSummary(phases []Phase, outliers []history.Session) string {
	var sb strings.Builder

	total := len(outliers)
	for _, p := range phases {
		total += len(p.Sessions)
	}

	if len(phases) == 0 {
		sb.WriteString(fmt.Sprintf("No phases found from %d %s", total, plural(total, "session")))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d %s",
		len(phases), plural(len(phases), "phase"), total, plural(total, "session")))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, p := range phases {
		sb.WriteString("\n")
		sb.WriteString(formatPhase(i+1, p))
	}

	return sb.String()
}

func formatPhase(num int, p Phase) string {
	var sb strings.Builder

	dominant := p.Dominant.Label()
	sb.WriteString(fmt.Sprintf("Phase %d: %s (%d %s, mostly %s)\n",
		num, p.Title(), len(p.Sessions), plural(len(p.Sessions), "session"), dominant))

	shown := 0
	for _, s := range p.Sessions {
		if shown == samplePreviewCount {
			break
		}
		text := history.Preview(s.InputText, previewLength)
		if text == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("  • %s %q\n", s.Meta().Emoji, text))
		shown++
	}

	if remaining := len(p.Sessions) - shown; remaining > 0 && shown > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
