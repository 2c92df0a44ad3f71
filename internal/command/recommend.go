package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/flow"
)

// ErrMissingInput is returned when neither a mood nor text was given.
var ErrMissingInput = errors.New("select a mood or describe your feelings")

// RecommendCommand picks a playlist and records the session.
type RecommendCommand struct {
	*BaseCommand
	cfg      *config.Config
	mood     string
	emoji    string
	language string
}

// NewRecommendCommand creates a new recommend command.
func NewRecommendCommand(cfg *config.Config) *RecommendCommand {
	return &RecommendCommand{
		BaseCommand: NewBaseCommand(
			"recommend",
			"Pick a playlist for a mood or a description of your day",
			"recommend [-mood name | -emoji e] [-lang language] [text...]",
		),
		cfg: cfg,
	}
}

// SetupFlags configures the flags for the recommend command.
func (c *RecommendCommand) SetupFlags(fs *flag.FlagSet) {
	c.cfg.RegisterFlags(fs)
	fs.StringVar(&c.mood, "mood", "", "mood name, overrides text")
	fs.StringVar(&c.emoji, "emoji", "", "mood emoji, overrides text")
	fs.StringVar(&c.language, "lang", "", "playlist language (default english)")
}

// Execute runs the recommendation flow and prints the result.
func (c *RecommendCommand) Execute(args []string, stdout, stderr io.Writer) error {
	ctx := context.Background()
	e, err := openEnv(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.flow().Run(ctx, flow.Input{
		Mood:     c.mood,
		Emoji:    c.emoji,
		Text:     strings.Join(args, " "),
		Language: c.language,
	})
	if err != nil {
		return err
	}
	if res.State != flow.Resolved {
		_, _ = fmt.Fprintln(stderr, res.Prompt.Description)
		return ErrMissingInput
	}

	_, _ = lipgloss.Fprintln(stdout, moodLabel(res.Mood))
	_, _ = lipgloss.Fprintln(stdout, mutedStyle.Render(res.Meta.Description))
	_, _ = fmt.Fprintln(stdout, "")
	_, _ = lipgloss.Fprintf(stdout, "%s %s\n", titleStyle.Render(res.Playlist.Title), mutedStyle.Render("("+res.Language.String()+")"))
	_, _ = fmt.Fprintln(stdout, res.Playlist.OpenURL())
	_, _ = fmt.Fprintln(stdout, "")
	_, _ = fmt.Fprintln(stdout, res.ShareText)
	return nil
}
