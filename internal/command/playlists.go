package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"charm.land/lipgloss/v2"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/playlist"
	"github.com/justestif/go-moodify/internal/spotify"
)

// PlaylistsCommand lists the playlist directory and can check it against
// the Spotify Web API.
type PlaylistsCommand struct {
	*BaseCommand
	cfg         *config.Config
	verify      bool
	concurrency int

	// newFetcher builds the Spotify client; replaced in tests.
	newFetcher func(ctx context.Context, cfg *config.Config) (spotify.PlaylistFetcher, error)
}

// NewPlaylistsCommand creates a new playlists command.
func NewPlaylistsCommand(cfg *config.Config) *PlaylistsCommand {
	return &PlaylistsCommand{
		BaseCommand: NewBaseCommand(
			"playlists",
			"List the playlist directory, optionally verifying it on Spotify",
			"playlists [-verify] [-playlists file]",
		),
		cfg: cfg,
		newFetcher: func(ctx context.Context, cfg *config.Config) (spotify.PlaylistFetcher, error) {
			return spotify.NewClient(ctx, cfg.SpotifyID, cfg.SpotifySecret)
		},
	}
}

// SetupFlags configures the flags for the playlists command.
func (c *PlaylistsCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.cfg.PlaylistsFile, "playlists", c.cfg.PlaylistsFile, "YAML playlist directory file")
	fs.BoolVar(&c.verify, "verify", false, "check every playlist exists (needs SPOTIFY_ID and SPOTIFY_SECRET)")
	fs.IntVar(&c.concurrency, "concurrency", spotify.DefaultConcurrency, "playlists fetched at once when verifying")
}

// Execute prints the directory or the verification report.
func (c *PlaylistsCommand) Execute(args []string, stdout, stderr io.Writer) error {
	dir := playlist.Default()
	if c.cfg.PlaylistsFile != "" {
		var err error
		dir, err = playlist.LoadFile(c.cfg.PlaylistsFile)
		if err != nil {
			return err
		}
	}

	if !c.verify {
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, row := range dir.Entries() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Mood, row.Language, row.Entry.Title, row.Entry.OpenURL())
		}
		return w.Flush()
	}

	ctx := context.Background()
	fetcher, err := c.newFetcher(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("connecting to spotify: %w", err)
	}

	checks, err := spotify.NewVerifier(fetcher, spotify.WithConcurrency(c.concurrency)).Verify(ctx, dir)
	if err != nil {
		return err
	}

	failed := 0
	for _, check := range checks {
		label := fmt.Sprintf("%s/%s %q", check.Mood, check.Language, check.Entry.Title)
		if check.OK() {
			_, _ = lipgloss.Fprintf(stdout, "%s %s %s\n", okStyle.Render("ok"), label,
				mutedStyle.Render(fmt.Sprintf("(%s, %d tracks)", check.Playlist.Name, check.Playlist.Tracks)))
			continue
		}
		failed++
		_, _ = lipgloss.Fprintf(stdout, "%s %s: %v\n", errStyle.Render("FAIL"), label, check.Err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d playlists failed verification", failed, len(checks))
	}
	return nil
}
