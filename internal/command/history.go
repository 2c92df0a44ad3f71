package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"charm.land/lipgloss/v2"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/history"
)

const historyPreviewLength = 50

// HistoryCommand lists or clears the local mood history.
type HistoryCommand struct {
	*BaseCommand
	cfg    *config.Config
	limit  int
	clear  bool
	asJSON bool
}

// NewHistoryCommand creates a new history command.
func NewHistoryCommand(cfg *config.Config) *HistoryCommand {
	return &HistoryCommand{
		BaseCommand: NewBaseCommand(
			"history",
			"List or clear your mood history",
			"history [-n count] [-json] [-clear]",
		),
		cfg: cfg,
	}
}

// SetupFlags configures the flags for the history command.
func (c *HistoryCommand) SetupFlags(fs *flag.FlagSet) {
	c.cfg.RegisterFlags(fs)
	fs.IntVar(&c.limit, "n", 0, "show only the newest n sessions, 0 for all")
	fs.BoolVar(&c.clear, "clear", false, "delete every session")
	fs.BoolVar(&c.asJSON, "json", false, "print sessions as JSON")
}

// Execute prints or clears the history.
func (c *HistoryCommand) Execute(args []string, stdout, stderr io.Writer) error {
	ctx := context.Background()
	e, err := openEnv(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	store := e.history()

	if c.clear {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		_, _ = lipgloss.Fprintln(stdout, okStyle.Render("History cleared."))
		return nil
	}

	sessions := store.List(ctx)
	if c.limit > 0 && len(sessions) > c.limit {
		sessions = sessions[:c.limit]
	}

	if c.asJSON {
		data, err := history.Encode(sessions)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(stdout, "No mood history yet. Try 'moodify recommend'.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	for _, s := range sessions {
		text := history.Preview(s.InputText, historyPreviewLength)
		if text != "" {
			text = fmt.Sprintf("%q", text)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\n",
			s.Timestamp.Local().Format("Jan 2, 03:04 PM"),
			s.Meta().Emoji, s.Meta().Label,
			text,
		)
	}
	return w.Flush()
}
