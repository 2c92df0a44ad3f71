package classifier

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/justestif/go-moodify/internal/mood"
)

// Rule assigns a mood to text containing any of its keywords.
type Rule struct {
	Mood     mood.Mood
	Keywords []string
}

// defaultRules is evaluated top to bottom; the first matching rule wins, so
// "happy but stressed" is happy. Keywords are substrings, not words: "low"
// also matches "slow" and "heart" matches "heartbroken".
var defaultRules = []Rule{
	{Mood: mood.Happy, Keywords: []string{"happy", "joy", "excited", "great"}},
	{Mood: mood.Sad, Keywords: []string{"sad", "down", "depressed", "low"}},
	{Mood: mood.Calm, Keywords: []string{"calm", "peaceful", "relaxed", "chill"}},
	{Mood: mood.Anxious, Keywords: []string{"anxious", "worried", "stressed", "nervous"}},
	{Mood: mood.Angry, Keywords: []string{"angry", "mad", "furious", "rage"}},
	{Mood: mood.Romantic, Keywords: []string{"love", "romantic", "romance", "heart"}},
	{Mood: mood.Energetic, Keywords: []string{"energy", "pumped", "motivated", "active"}},
}

// Rules returns a copy of the default rule table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = Rule{Mood: r.Mood, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Keyword classifies text by ordered substring rules.
type Keyword struct {
	rules []Rule
}

// NewKeyword returns a Keyword classifier using the default rules.
func NewKeyword() *Keyword {
	return &Keyword{rules: defaultRules}
}

// NewKeywordWithRules returns a Keyword classifier using custom rules.
func NewKeywordWithRules(rules []Rule) *Keyword {
	return &Keyword{rules: rules}
}

// Match returns the first rule matching text.
func (k *Keyword) Match(text string) (Rule, bool) {
	lower := cases.Lower(language.Und).String(text)
	for _, r := range k.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Classify returns the mood of the first matching rule, or calm. It never
// fails and does not block.
func (k *Keyword) Classify(_ context.Context, text string) (mood.Mood, error) {
	if r, ok := k.Match(text); ok {
		return r.Mood, nil
	}
	return mood.Default, nil
}
