// Package playlist maps moods and languages to embeddable playlist references.
package playlist

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justestif/go-moodify/internal/mood"
)

// ErrInvalidDirectory is returned when a directory file fails validation.
var ErrInvalidDirectory = errors.New("invalid playlist directory")

//go:embed directory.yaml
var defaultDirectoryYAML []byte

// Entry is an external playlist reference. The core only produces the title
// and URL; the player consuming the URL is opaque.
type Entry struct {
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

// PlaylistID returns the Spotify playlist ID embedded in the URL, or "" if
// the URL is not a Spotify playlist link.
func (e Entry) PlaylistID() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "playlist" {
			return parts[i+1]
		}
	}
	return ""
}

// OpenURL returns the non-embed link for sharing, falling back to URL.
func (e Entry) OpenURL() string {
	id := e.PlaylistID()
	if id == "" {
		return e.URL
	}
	return "https://open.spotify.com/playlist/" + id
}

// Row is a single flattened directory record.
type Row struct {
	Mood     mood.Mood
	Language Language
	Entry    Entry
}

// Directory is an immutable mood/language to playlist table.
type Directory struct {
	entries map[mood.Mood]map[Language]Entry
}

// fileFormat is the YAML layout of a directory file.
type fileFormat struct {
	Playlists map[string]map[string]Entry `yaml:"playlists"`
}

// Default returns the built-in directory.
func Default() *Directory {
	d, err := parse(defaultDirectoryYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("built-in playlist directory: %v", err))
	}
	return d
}

// Parse parses a YAML directory. Moods missing from data are filled from the
// built-in directory.
func Parse(data []byte) (*Directory, error) {
	return parse(data, Default())
}

// LoadFile reads and parses a YAML directory file.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playlist directory: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

func parse(data []byte, base *Directory) (*Directory, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}

	d := &Directory{entries: make(map[mood.Mood]map[Language]Entry)}

	for moodName, byLang := range f.Playlists {
		m, ok := mood.Lookup(moodName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown mood %q", ErrInvalidDirectory, moodName)
		}
		langs := make(map[Language]Entry, len(byLang))
		for langName, entry := range byLang {
			lang, ok := LookupLanguage(langName)
			if !ok {
				return nil, fmt.Errorf("%w: unknown language %q for mood %q", ErrInvalidDirectory, langName, moodName)
			}
			if strings.TrimSpace(entry.URL) == "" {
				return nil, fmt.Errorf("%w: empty url for %s/%s", ErrInvalidDirectory, m, lang)
			}
			if entry.Title == "" {
				entry.Title = m.Label() + " Mix"
			}
			langs[lang] = entry
		}
		if _, ok := langs[English]; !ok {
			return nil, fmt.Errorf("%w: mood %q has no english entry", ErrInvalidDirectory, m)
		}
		d.entries[m] = langs
	}

	for _, m := range mood.All() {
		if _, ok := d.entries[m]; ok {
			continue
		}
		if base == nil {
			return nil, fmt.Errorf("%w: mood %q missing", ErrInvalidDirectory, m)
		}
		d.entries[m] = base.entries[m]
	}

	return d, nil
}

// Lookup returns the playlist for a mood and language. Unknown moods resolve
// to calm and unavailable languages to english, so it never fails.
func (d *Directory) Lookup(m mood.Mood, lang Language) Entry {
	byLang, ok := d.entries[m]
	if !ok {
		byLang = d.entries[mood.Default]
	}
	if e, ok := byLang[lang]; ok {
		return e
	}
	return byLang[DefaultLanguage]
}

// Has reports whether the directory has an exact entry for m and lang.
func (d *Directory) Has(m mood.Mood, lang Language) bool {
	_, ok := d.entries[m][lang]
	return ok
}

// Languages returns the languages available for m, English first.
func (d *Directory) Languages(m mood.Mood) []Language {
	var out []Language
	for _, l := range languages {
		if d.Has(m, l) {
			out = append(out, l)
		}
	}
	return out
}

// Entries returns every entry ordered by mood then language.
func (d *Directory) Entries() []Row {
	var rows []Row
	for _, m := range mood.All() {
		for _, l := range d.Languages(m) {
			rows = append(rows, Row{Mood: m, Language: l, Entry: d.entries[m][l]})
		}
	}
	return rows
}
