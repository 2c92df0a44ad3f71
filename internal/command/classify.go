package command

import (
	"context"
	"errors"
	"flag"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/mood"
)

// ErrNoText is returned when a command needs text and got none.
var ErrNoText = errors.New("no text given")

// ClassifyCommand prints the mood detected in a piece of text.
type ClassifyCommand struct {
	*BaseCommand
	cfg *config.Config
}

// NewClassifyCommand creates a new classify command.
func NewClassifyCommand(cfg *config.Config) *ClassifyCommand {
	return &ClassifyCommand{
		BaseCommand: NewBaseCommand(
			"classify",
			"Detect the mood of some text without saving it",
			"classify [options] <text...>",
		),
		cfg: cfg,
	}
}

// SetupFlags configures the flags for the classify command.
func (c *ClassifyCommand) SetupFlags(fs *flag.FlagSet) {
	c.cfg.RegisterFlags(fs)
}

// Execute classifies the joined arguments.
func (c *ClassifyCommand) Execute(args []string, stdout, stderr io.Writer) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return ErrNoText
	}

	ctx := context.Background()
	e, err := openEnv(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := e.classifier.Classify(ctx, text)
	if err != nil || !m.Valid() {
		e.log.Warn("classification failed, using default mood", zap.Error(err))
		m = mood.Default
	}

	_, _ = lipgloss.Fprintln(stdout, moodLabel(m), mutedStyle.Render("("+m.String()+")"))
	return nil
}
