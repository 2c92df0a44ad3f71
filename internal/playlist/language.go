package playlist

import "strings"

// Language selects a regional variant of a mood playlist.
type Language string

// Supported languages.
const (
	English Language = "english"
	Telugu  Language = "telugu"
	Hindi   Language = "hindi"
	Tamil   Language = "tamil"
	Punjabi Language = "punjabi"
	Spanish Language = "spanish"
)

// DefaultLanguage is used when a language is missing, unknown, or has no
// entry for the requested mood.
const DefaultLanguage = English

var languages = []Language{English, Telugu, Hindi, Tamil, Punjabi, Spanish}

// Languages returns the supported languages, English first.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LookupLanguage returns the language named by s, ignoring case.
func LookupLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range languages {
		if l == known {
			return l, true
		}
	}
	return DefaultLanguage, false
}

// ParseLanguage returns the language named by s, or DefaultLanguage.
func ParseLanguage(s string) Language {
	l, _ := LookupLanguage(s)
	return l
}

func (l Language) String() string {
	return string(l)
}
