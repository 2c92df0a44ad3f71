package playlist

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/mood"
)

const reloadDebounce = 250 * time.Millisecond

// Source holds the current directory and swaps it when the backing file changes.
type Source struct {
	current atomic.Pointer[Directory]
	log     *zap.Logger
}

// NewSource returns a Source serving d.
func NewSource(d *Directory, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Source{log: log}
	s.current.Store(d)
	return s
}

// OpenSource loads path if set, otherwise serves the built-in directory.
func OpenSource(path string, log *zap.Logger) (*Source, error) {
	if path == "" {
		return NewSource(Default(), log), nil
	}
	d, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSource(d, log), nil
}

// Current returns the directory in effect.
func (s *Source) Current() *Directory {
	return s.current.Load()
}

// Lookup is shorthand for Current().Lookup.
func (s *Source) Lookup(m mood.Mood, lang Language) Entry {
	return s.Current().Lookup(m, lang)
}

// Reload re-reads path. On error the previous directory stays in effect.
func (s *Source) Reload(path string) error {
	d, err := LoadFile(path)
	if err != nil {
		return err
	}
	s.current.Store(d)
	return nil
}

// Watch reloads path whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (s *Source) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := s.Reload(target); err != nil {
					s.log.Warn("playlist directory reload failed, keeping previous", zap.String("path", target), zap.Error(err))
					continue
				}
				s.log.Info("playlist directory reloaded", zap.String("path", target))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("playlist directory watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
