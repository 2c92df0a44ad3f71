package config

import (
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/storage"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.Storage != storage.KindFile {
		t.Errorf("Storage = %q, want file", cfg.Storage)
	}
	if cfg.HistoryLimit != history.DefaultLimit {
		t.Errorf("HistoryLimit = %d, want %d", cfg.HistoryLimit, history.DefaultLimit)
	}
	if cfg.Classifier != classifier.KindKeyword {
		t.Errorf("Classifier = %q, want keyword", cfg.Classifier)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"MOODIFY_ADDR":             "127.0.0.1:9000",
		"MOODIFY_STORAGE":          "Postgres",
		"DATABASE_URL":             "postgres://localhost/moodify",
		"MOODIFY_HISTORY_LIMIT":    "50",
		"MOODIFY_CLASSIFIER":       "openai",
		"OPENAI_API_KEY":           "sk-test",
		"MOODIFY_OPENAI_MODEL":     "gpt-4.1-mini",
		"MOODIFY_OPENAI_BASE_URL":  "http://localhost:11434/v1/",
		"MOODIFY_CLASSIFY_TIMEOUT": "2s",
		"MOODIFY_LOG_FORMAT":       "json",
	}))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Storage != storage.KindPostgres {
		t.Errorf("Storage = %q, want postgres", cfg.Storage)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.ClassifyTimeout != 2*time.Second {
		t.Errorf("ClassifyTimeout = %v, want 2s", cfg.ClassifyTimeout)
	}

	opts := cfg.ClassifierOptions()
	if opts.Kind != classifier.KindOpenAI || opts.APIKey != "sk-test" || opts.Model != "gpt-4.1-mini" {
		t.Errorf("ClassifierOptions() = %+v", opts)
	}
	if opts.BaseURL != "http://localhost:11434/v1/" {
		t.Errorf("ClassifierOptions().BaseURL = %q", opts.BaseURL)
	}
	if so := cfg.StorageOptions(); so.DatabaseURL != "postgres://localhost/moodify" {
		t.Errorf("StorageOptions().DatabaseURL = %q", so.DatabaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "history limit", env: map[string]string{"MOODIFY_HISTORY_LIMIT": "lots"}},
		{name: "timeout", env: map[string]string{"MOODIFY_CLASSIFY_TIMEOUT": "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(envFrom(tt.env)); err == nil {
				t.Error("load() error = nil, want error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
		ok      bool
	}{
		{name: "defaults", modify: func(*Config) {}, ok: true},
		{
			name:    "postgres without url",
			modify:  func(c *Config) { c.Storage = storage.KindPostgres },
			wantErr: ErrMissingDatabaseURL,
		},
		{
			name:    "openai without key",
			modify:  func(c *Config) { c.Classifier = classifier.KindOpenAI },
			wantErr: ErrMissingAPIKey,
		},
		{name: "unknown storage", modify: func(c *Config) { c.Storage = "redis" }},
		{name: "unknown classifier", modify: func(c *Config) { c.Classifier = "tarot" }},
		{name: "negative limit", modify: func(c *Config) { c.HistoryLimit = -1 }},
		{name: "zero timeout", modify: func(c *Config) { c.ClassifyTimeout = 0 }},
		{name: "bad log format", modify: func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.ok {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterFlagsOverride(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{"-storage", "MEMORY", "-history-limit", "10", "-classify-timeout", "750ms", "-openai-base-url", "http://proxy.test/v1/"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Storage != storage.KindMemory {
		t.Errorf("Storage = %q, want memory", cfg.Storage)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10", cfg.HistoryLimit)
	}
	if cfg.ClassifyTimeout != 750*time.Millisecond {
		t.Errorf("ClassifyTimeout = %v, want 750ms", cfg.ClassifyTimeout)
	}
	if got := cfg.ClassifierOptions().BaseURL; got != "http://proxy.test/v1/" {
		t.Errorf("ClassifierOptions().BaseURL = %q", got)
	}
}
