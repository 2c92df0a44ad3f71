// Package config loads Moodify configuration from the environment and
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/storage"
)

// DefaultAddr is the default listen address for the web server.
const DefaultAddr = ":8080"

var (
	// ErrMissingAPIKey is returned when the openai classifier is selected
	// without OPENAI_API_KEY.
	ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY environment variable")

	// ErrMissingDatabaseURL is returned when postgres storage is selected
	// without DATABASE_URL.
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")
)

// Config holds all runtime settings.
type Config struct {
	Addr    string
	BaseURL string

	Storage      storage.Kind
	DataDir      string
	DatabaseURL  string
	HistoryLimit int

	PlaylistsFile string

	Classifier      classifier.Kind
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	ClassifyTimeout time.Duration

	SpotifyID     string
	SpotifySecret string

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:            DefaultAddr,
		Storage:         storage.KindFile,
		HistoryLimit:    history.DefaultLimit,
		Classifier:      classifier.KindKeyword,
		OpenAIModel:     classifier.DefaultModel,
		ClassifyTimeout: classifier.DefaultTimeout,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load reads configuration from environment variables over the defaults.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	setString(&cfg.Addr, getenv("MOODIFY_ADDR"))
	setString(&cfg.BaseURL, getenv("MOODIFY_BASE_URL"))
	if v := getenv("MOODIFY_STORAGE"); v != "" {
		cfg.Storage = storage.Kind(strings.ToLower(v))
	}
	setString(&cfg.DataDir, getenv("MOODIFY_DATA_DIR"))
	setString(&cfg.DatabaseURL, getenv("DATABASE_URL"))
	setString(&cfg.PlaylistsFile, getenv("MOODIFY_PLAYLISTS_FILE"))
	if v := getenv("MOODIFY_CLASSIFIER"); v != "" {
		cfg.Classifier = classifier.Kind(strings.ToLower(v))
	}
	setString(&cfg.OpenAIKey, getenv("OPENAI_API_KEY"))
	setString(&cfg.OpenAIModel, getenv("MOODIFY_OPENAI_MODEL"))
	setString(&cfg.OpenAIBaseURL, getenv("MOODIFY_OPENAI_BASE_URL"))
	setString(&cfg.SpotifyID, getenv("SPOTIFY_ID"))
	setString(&cfg.SpotifySecret, getenv("SPOTIFY_SECRET"))
	setString(&cfg.LogLevel, getenv("MOODIFY_LOG_LEVEL"))
	setString(&cfg.LogFormat, getenv("MOODIFY_LOG_FORMAT"))

	if v := getenv("MOODIFY_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing MOODIFY_HISTORY_LIMIT: %w", err)
		}
		cfg.HistoryLimit = n
	}
	if v := getenv("MOODIFY_CLASSIFY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing MOODIFY_CLASSIFY_TIMEOUT: %w", err)
		}
		cfg.ClassifyTimeout = d
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// RegisterFlags binds flags that override the loaded values. Call before
// fs.Parse.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("storage", "history storage: memory, file or postgres (default "+string(c.Storage)+")", func(v string) error {
		c.Storage = storage.Kind(strings.ToLower(v))
		return nil
	})
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for file storage")
	fs.IntVar(&c.HistoryLimit, "history-limit", c.HistoryLimit, "maximum sessions kept, 0 for no limit")
	fs.StringVar(&c.PlaylistsFile, "playlists", c.PlaylistsFile, "YAML playlist directory file")
	fs.Func("classifier", "text classifier: keyword or openai (default "+string(c.Classifier)+")", func(v string) error {
		c.Classifier = classifier.Kind(strings.ToLower(v))
		return nil
	})
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", c.OpenAIBaseURL, "OpenAI-compatible API endpoint")
	fs.DurationVar(&c.ClassifyTimeout, "classify-timeout", c.ClassifyTimeout, "timeout for the networked classifier")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: console or json")
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case storage.KindMemory, storage.KindFile:
	case storage.KindPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, ErrMissingDatabaseURL)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}

	switch c.Classifier {
	case classifier.KindKeyword:
	case classifier.KindOpenAI:
		if c.OpenAIKey == "" {
			errs = append(errs, ErrMissingAPIKey)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown classifier %q", c.Classifier))
	}

	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit))
	}
	if c.ClassifyTimeout <= 0 {
		errs = append(errs, fmt.Errorf("classify timeout must be positive, got %s", c.ClassifyTimeout))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Kind:        c.Storage,
		Dir:         c.DataDir,
		DatabaseURL: c.DatabaseURL,
	}
}

// ClassifierOptions returns the options for classifier.New.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		Kind:    c.Classifier,
		APIKey:  c.OpenAIKey,
		Model:   c.OpenAIModel,
		BaseURL: c.OpenAIBaseURL,
		Timeout: c.ClassifyTimeout,
	}
}
