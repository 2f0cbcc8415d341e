// Package geo labels influencer profiles by US-market fit. Profiles are
// matched against keyword signatures (locations, demonyms, flag emoji) so
// outreach lists can be partitioned before anyone reads them by hand.
package geo

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Category is the classification outcome for one profile.
type Category string

const (
	CategoryUSConfirmed Category = "us_confirmed"
	CategoryNonUS       Category = "non_us"
	CategoryUncertain   Category = "uncertain"
	CategoryNoSignature Category = "no_signature"
)

// Result is one classification with the keywords that drove it.
type Result struct {
	Category Category
	Matched  []string
}

// Signatures are the keyword sets the classifier matches against. Word
// keywords match on whole-word boundaries; emoji match as substrings.
type Signatures struct {
	US         []string
	NonUS      []string
	USEmoji    []string
	NonUSEmoji []string
}

// DefaultSignatures covers the locations and demonyms that showed up in
// real profile intros. Deliberately omits two-letter tokens like "us" and
// "la" that collide with ordinary words.
func DefaultSignatures() Signatures {
	return Signatures{
		US: []string{
			"usa", "u s", "united states", "america", "american",
			"nyc", "new york", "brooklyn", "los angeles", "california",
			"san francisco", "san diego", "texas", "houston", "dallas",
			"austin", "florida", "miami", "orlando", "chicago", "atlanta",
			"seattle", "boston", "philadelphia", "las vegas", "denver",
			"phoenix", "portland", "nashville", "washington dc",
		},
		NonUS: []string{
			"london", "united kingdom", "england", "canada", "toronto",
			"vancouver", "australia", "sydney", "melbourne", "germany",
			"berlin", "france", "paris", "spain", "madrid", "italy",
			"india", "mumbai", "philippines", "manila", "indonesia",
			"jakarta", "brazil", "mexico", "japan", "tokyo", "korea",
			"seoul", "dubai", "singapore",
		},
		USEmoji:    []string{"🇺🇸"},
		NonUSEmoji: []string{"🇬🇧", "🇨🇦", "🇦🇺", "🇩🇪", "🇫🇷", "🇮🇳", "🇵🇭", "🇮🇩", "🇧🇷", "🇲🇽", "🇯🇵", "🇰🇷"},
	}
}

// Classifier partitions profile text into market categories.
type Classifier struct {
	sigs         Signatures
	usMatcher    *ahocorasick.Matcher
	nonUSMatcher *ahocorasick.Matcher
	usWords      []string
	nonUSWords   []string
}

// New builds a classifier. Nil-set signatures fall back to the defaults.
func New(sigs Signatures) *Classifier {
	if len(sigs.US) == 0 && len(sigs.NonUS) == 0 {
		sigs = DefaultSignatures()
	}

	c := &Classifier{sigs: sigs}
	c.usWords, c.usMatcher = buildMatcher(sigs.US)
	c.nonUSWords, c.nonUSMatcher = buildMatcher(sigs.NonUS)
	return c
}

func buildMatcher(keywords []string) ([]string, *ahocorasick.Matcher) {
	if len(keywords) == 0 {
		return nil, nil
	}
	padded := make([]string, len(keywords))
	for i, kw := range keywords {
		// Padding plus normalized input text gives whole-word matching.
		padded[i] = " " + normalizeText(kw) + " "
	}
	return keywords, ahocorasick.NewStringMatcher(padded)
}

// Classify labels the concatenated profile texts. Profiles showing both a
// US and a non-US signature come back uncertain rather than confirmed;
// profiles with no geographic signal at all come back no-signature.
func (c *Classifier) Classify(texts ...string) Result {
	joined := strings.TrimSpace(strings.Join(texts, " "))
	if joined == "" {
		return Result{Category: CategoryNoSignature}
	}

	normalized := " " + normalizeText(joined) + " "
	usHits := c.match(c.usMatcher, c.usWords, normalized)
	nonUSHits := c.match(c.nonUSMatcher, c.nonUSWords, normalized)

	for _, emoji := range c.sigs.USEmoji {
		if strings.Contains(joined, emoji) {
			usHits = append(usHits, emoji)
		}
	}
	for _, emoji := range c.sigs.NonUSEmoji {
		if strings.Contains(joined, emoji) {
			nonUSHits = append(nonUSHits, emoji)
		}
	}

	switch {
	case len(usHits) > 0 && len(nonUSHits) > 0:
		return Result{Category: CategoryUncertain, Matched: append(usHits, nonUSHits...)}
	case len(usHits) > 0:
		return Result{Category: CategoryUSConfirmed, Matched: usHits}
	case len(nonUSHits) > 0:
		return Result{Category: CategoryNonUS, Matched: nonUSHits}
	default:
		return Result{Category: CategoryNoSignature}
	}
}

func (c *Classifier) match(matcher *ahocorasick.Matcher, words []string, text string) []string {
	if matcher == nil {
		return nil
	}
	var matched []string
	for _, idx := range matcher.Match([]byte(text)) {
		if idx >= 0 && idx < len(words) {
			matched = append(matched, words[idx])
		}
	}
	return matched
}

// normalizeText lowercases and collapses everything that isn't a letter
// or digit to single spaces so "U.S.-based" matches the "u s" keyword.
// Emoji are matched separately against the raw text.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
