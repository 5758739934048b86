// Package extract turns free-text utterances into candidate memories.
//
// A fixed ordered battery of category matchers runs over the text; each
// match builds a model.Candidate. Extraction has no side effects, never
// fails, and performs no deduplication: key uniqueness for auto-generated
// keys is guaranteed by a timestamp suffix, and duplicate suppression is
// the admission policy's job.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hazoom/assistant-memory/internal/model"
)

// now is swappable for deterministic key-suffix tests.
var now = time.Now

// category is one entry in the extraction battery.
type category struct {
	name     string
	patterns []*regexp.Regexp

	// original matches against the raw text instead of the lowered text,
	// preserving the captured casing (names, product identifiers).
	original bool

	// firstOnly stops after the first matching pattern.
	firstOnly bool

	// build turns a regexp submatch into a candidate. Returning false
	// discards the match.
	build func(groups []string) (model.Candidate, bool)
}

var stopwords = map[string]bool{"a": true, "an": true, "the": true}

// battery is the ordered matcher table. Order fixes candidate emission
// order: name, preference, remember, system, fact.
var battery = []category{
	{
		name: "name",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:my name is|i'm|i am|call me|i go by) ([A-Z][a-z]+)`),
			regexp.MustCompile(`(?i)(?:this is|it's) ([A-Z][a-z]+) (?:speaking|here)`),
		},
		original:  true,
		firstOnly: true,
		build: func(groups []string) (model.Candidate, bool) {
			name := groups[1]
			return model.Candidate{
				Key:         "user_name",
				Value:       name,
				MemoryType:  "preference",
				Importance:  9,
				Tags:        []string{"personal", "identity"},
				Description: fmt.Sprintf("User identified themselves as %s", name),
			}, true
		},
	},
	{
		name: "preference",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`i (?:like|love|prefer|enjoy) ([^.,!?]+)`),
			regexp.MustCompile(`my favorite ([^.,!?]+) is ([^.,!?]+)`),
			regexp.MustCompile(`i (?:hate|dislike|don't like) ([^.,!?]+)`),
		},
		build: func(groups []string) (model.Candidate, bool) {
			var key, value string
			if len(groups) >= 3 && groups[2] != "" {
				key = "favorite_" + strings.ReplaceAll(groups[1], " ", "_")
				value = groups[2]
			} else {
				value = strings.TrimSpace(groups[1])
				key = "preference_" + generateKey(value)
			}
			return model.Candidate{
				Key:         key,
				Value:       value,
				MemoryType:  "preference",
				Importance:  7,
				Tags:        []string{"preference", "likes"},
				Description: fmt.Sprintf("User preference: %s", value),
			}, true
		},
	},
	{
		name: "remember",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`remember (?:that |this: ?)?([^.,!?]+)`),
			regexp.MustCompile(`don't forget (?:that |this: ?)?([^.,!?]+)`),
			regexp.MustCompile(`keep in mind (?:that |this: ?)?([^.,!?]+)`),
			regexp.MustCompile(`note (?:that |this: ?)?([^.,!?]+)`),
		},
		build: func(groups []string) (model.Candidate, bool) {
			content := strings.TrimSpace(groups[1])
			return model.Candidate{
				Key:         "important_" + generateKey(content),
				Value:       content,
				MemoryType:  "fact",
				Importance:  10,
				Tags:        []string{"important", "explicit"},
				Description: "User explicitly requested to remember this",
			}, true
		},
	},
	{
		name: "system",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)i(?:'m| am) (?:using|running|on) ([^.,!?]+)`),
			regexp.MustCompile(`(?i)my system (?:has|is) ([^.,!?]+)`),
			regexp.MustCompile(`(?i)i have a ([A-Z][^.,!?]+) (?:GPU|CPU|graphics card)`),
		},
		original: true,
		build: func(groups []string) (model.Candidate, bool) {
			content := strings.TrimSpace(groups[1])
			return model.Candidate{
				Key:         "system_" + generateKey(content),
				Value:       content,
				MemoryType:  "system",
				Importance:  6,
				Tags:        []string{"system", "technical"},
				Description: fmt.Sprintf("System information: %s", content),
			}, true
		},
	},
	{
		name: "fact",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`i (?:have|own|use|work with) ([^.,!?]+)`),
			regexp.MustCompile(`my ([a-z]+) is ([^.,!?]+)`),
			regexp.MustCompile(`i (?:am|was) (?:a |an )?([^.,!?]+)`),
		},
		build: func(groups []string) (model.Candidate, bool) {
			var key, value string
			if len(groups) >= 3 && groups[2] != "" {
				key = strings.ReplaceAll(groups[1], " ", "_")
				value = groups[2]
			} else {
				value = strings.TrimSpace(groups[1])
				key = generateKey(value)
			}
			if len(value) < 3 || stopwords[value] {
				return model.Candidate{}, false
			}
			return model.Candidate{
				Key:         key,
				Value:       value,
				MemoryType:  "fact",
				Importance:  5,
				Tags:        []string{"fact", "auto-extracted"},
				Description: fmt.Sprintf("Fact about user: %s", value),
			}, true
		},
	},
}

// Extract runs the matcher battery over one utterance and returns the
// candidate memories it finds. It never fails; non-linguistic or empty
// input yields nil.
func Extract(text, userIdentifier string) []model.Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lowered := strings.ToLower(text)
	var candidates []model.Candidate

	for _, cat := range battery {
		subject := lowered
		if cat.original {
			subject = text
		}
		matched := false
		for _, re := range cat.patterns {
			for _, groups := range re.FindAllStringSubmatch(subject, -1) {
				c, ok := cat.build(groups)
				if !ok {
					continue
				}
				candidates = append(candidates, c)
				matched = true
				if cat.firstOnly {
					break
				}
			}
			if cat.firstOnly && matched {
				break
			}
		}
	}

	return candidates
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9\s]`)

// generateKey builds a safe key from text: lowercase, alphanumeric words
// joined by underscores, capped at 50 chars, with a nanosecond timestamp
// suffix so repeated extractions of similar phrasing never collide.
func generateKey(text string) string {
	key := nonKeyChars.ReplaceAllString(strings.ToLower(text), "")
	key = strings.Join(strings.Fields(key), "_")
	if len(key) > 50 {
		key = key[:50]
	}
	return fmt.Sprintf("%s_%d", key, now().UnixNano())
}
