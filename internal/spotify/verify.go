package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
)

// DefaultConcurrency is the number of playlists fetched at once.
const DefaultConcurrency = 5

// ErrNoPlaylistID is reported for entries whose URL has no playlist ID.
var ErrNoPlaylistID = errors.New("url has no playlist id")

// PlaylistFetcher abstracts the Spotify client for testing.
type PlaylistFetcher interface {
	Playlist(ctx context.Context, id string) (Playlist, error)
}

// Check is the verification result for one directory entry.
type Check struct {
	Mood     mood.Mood
	Language playlist.Language
	Entry    playlist.Entry
	Playlist Playlist
	Err      error // Non-nil if the playlist could not be fetched
}

// OK reports whether the playlist exists.
func (c Check) OK() bool {
	return c.Err == nil
}

// Verifier checks directory entries concurrently.
type Verifier struct {
	fetcher     PlaylistFetcher
	concurrency int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithConcurrency sets the number of concurrent playlist fetches.
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// NewVerifier creates a Verifier.
func NewVerifier(fetcher PlaylistFetcher, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify fetches every entry of dir. Results are returned in directory
// order. Individual failures are captured in Check.Err rather than failing
// the batch.
func (v *Verifier) Verify(ctx context.Context, dir *playlist.Directory) ([]Check, error) {
	rows := dir.Entries()
	results := make([]Check, len(rows))

	type workItem struct {
		index int
		row   playlist.Row
	}
	workCh := make(chan workItem, len(rows))
	for i, r := range rows {
		workCh <- workItem{index: i, row: r}
	}
	close(workCh)

	var wg sync.WaitGroup
	for range v.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				check := Check{
					Mood:     work.row.Mood,
					Language: work.row.Language,
					Entry:    work.row.Entry,
				}

				id := work.row.Entry.PlaylistID()
				switch {
				case ctx.Err() != nil:
					check.Err = ctx.Err()
				case id == "":
					check.Err = fmt.Errorf("%w: %s", ErrNoPlaylistID, work.row.Entry.URL)
				default:
					check.Playlist, check.Err = v.fetcher.Playlist(ctx, id)
				}

				results[work.index] = check
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

// Verify checks dir using the client.
func (c *Client) Verify(ctx context.Context, dir *playlist.Directory) ([]Check, error) {
	return NewVerifier(c).Verify(ctx, dir)
}
