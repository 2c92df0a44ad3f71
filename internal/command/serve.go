package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/journey"
	"github.com/justestif/go-moodify/internal/web"
	webfs "github.com/justestif/go-moodify/web"
)

// ServeCommand runs the web application.
type ServeCommand struct {
	*BaseCommand
	cfg *config.Config
}

// NewServeCommand creates a new serve command.
func NewServeCommand(cfg *config.Config) *ServeCommand {
	return &ServeCommand{
		BaseCommand: NewBaseCommand(
			"serve",
			"Run the Moodify web application",
			"serve [options]",
		),
		cfg: cfg,
	}
}

// SetupFlags configures the flags for the serve command.
func (c *ServeCommand) SetupFlags(fs *flag.FlagSet) {
	c.cfg.RegisterFlags(fs)
	fs.StringVar(&c.cfg.Addr, "addr", c.cfg.Addr, "address to listen on")
	fs.StringVar(&c.cfg.BaseURL, "base-url", c.cfg.BaseURL, "public origin used in share links")
}

// Execute starts the server and blocks until it is interrupted.
func (c *ServeCommand) Execute(args []string, stdout, stderr io.Writer) error {
	ctx := context.Background()

	e, err := openEnv(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	if c.cfg.PlaylistsFile != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := e.playlists.Watch(watchCtx, c.cfg.PlaylistsFile); err != nil {
			return fmt.Errorf("watching playlists: %w", err)
		}
		e.log.Info("watching playlist directory", zap.String("path", c.cfg.PlaylistsFile))
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        c.cfg.Addr,
		BaseURL:     c.cfg.BaseURL,
		TemplatesFS: templates,
		StaticFS:    static,
		Histories:   e.histories,
		Classifier:  e.classifier,
		Playlists:   e.playlists,
		Journey:     journey.DefaultConfig(),
		Logger:      e.log,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	e.log.Info("moodify ready",
		zap.String("storage", string(c.cfg.Storage)),
		zap.String("classifier", string(c.cfg.Classifier)),
	)
	return server.Run(ctx)
}
