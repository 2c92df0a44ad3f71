package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/config"
	"github.com/justestif/go-moodify/internal/flow"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/logging"
	"github.com/justestif/go-moodify/internal/playlist"
	"github.com/justestif/go-moodify/internal/storage"
)

// env is the set of services a command runs against.
type env struct {
	cfg        *config.Config
	log        *zap.Logger
	backend    storage.Backend
	histories  *history.Manager
	classifier classifier.Classifier
	playlists  *playlist.Source
}

// openEnv validates cfg and opens storage, the classifier and the playlist
// directory. Callers must Close the result.
func openEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	playlists := playlist.NewSource(playlist.Default(), log.Named("playlists"))
	if cfg.PlaylistsFile != "" {
		playlists, err = playlist.OpenSource(cfg.PlaylistsFile, log.Named("playlists"))
		if err != nil {
			return nil, fmt.Errorf("loading playlists: %w", err)
		}
	}

	opts := cfg.ClassifierOptions()
	opts.Logger = log.Named("classifier")
	c, err := classifier.New(opts)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	return &env{
		cfg:     cfg,
		log:     log,
		backend: backend,
		histories: history.NewManager(backend,
			history.WithLimit(cfg.HistoryLimit),
			history.WithLogger(log.Named("history")),
		),
		classifier: c,
		playlists:  playlists,
	}, nil
}

// history returns the local user's history.
func (e *env) history() *history.Store {
	return e.histories.Store(history.DefaultKey)
}

// flow returns a recommendation flow over the local history.
func (e *env) flow() *flow.Flow {
	return flow.New(e.classifier, e.playlists, e.history(),
		flow.WithLogger(e.log.Named("flow")),
		flow.WithBaseURL(e.cfg.BaseURL),
	)
}

func (e *env) Close() error {
	_ = e.log.Sync()
	return e.backend.Close()
}
