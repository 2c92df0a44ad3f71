package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/journey"
	"github.com/justestif/go-moodify/internal/mood"
)

const barWidth = 20

// JourneyCommand groups the history into mood phases.
type JourneyCommand struct {
	*BaseCommand
	cfg     *config.Config
	journey journey.Config
}

// NewJourneyCommand creates a new journey command.
func NewJourneyCommand(cfg *config.Config) *JourneyCommand {
	return &JourneyCommand{
		BaseCommand: NewBaseCommand(
			"journey",
			"Summarize your history as mood phases",
			"journey [-phases n] [-min-size n] [-time-weight w]",
		),
		cfg:     cfg,
		journey: journey.DefaultConfig(),
	}
}

// SetupFlags configures the flags for the journey command.
func (c *JourneyCommand) SetupFlags(fs *flag.FlagSet) {
	c.cfg.RegisterFlags(fs)
	fs.IntVar(&c.journey.NumPhases, "phases", c.journey.NumPhases, "number of phases to look for")
	fs.IntVar(&c.journey.MinPhaseSize, "min-size", c.journey.MinPhaseSize, "minimum sessions per phase")
	fs.Float64Var(&c.journey.TimeWeight, "time-weight", c.journey.TimeWeight, "how strongly time separates phases, 0 ignores time")
}

// Execute prints mood totals and the detected phases.
func (c *JourneyCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if c.journey.NumPhases < 1 {
		return fmt.Errorf("phases must be at least 1, got %d", c.journey.NumPhases)
	}

	ctx := context.Background()
	e, err := openEnv(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	sessions := e.history().List(ctx)
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(stdout, "No mood history yet. Try 'moodify recommend'.")
		return nil
	}

	counts := journey.Summary(sessions)
	total := counts.Total()
	_, _ = lipgloss.Fprintln(stdout, titleStyle.Render("Mood totals"))
	for _, mc := range counts.Sorted() {
		n := mc.Count * barWidth / total
		if n == 0 {
			n = 1
		}
		meta := mood.Info(mc.Mood)
		_, _ = lipgloss.Fprintf(stdout, "  %s %-10s %s %d\n",
			meta.Emoji, meta.Label, moodStyle(mc.Mood).Render(strings.Repeat("█", n)), mc.Count)
	}
	_, _ = fmt.Fprintln(stdout, "")

	cfg := c.journey
	cfg.Logger = e.log.Named("journey")
	phases, outliers := journey.DetectPhases(sessions, cfg)
	_, err = fmt.Fprint(stdout, journey.FormatSummary(phases, outliers))
	return err
}
