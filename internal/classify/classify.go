// Package classify holds the text heuristics used to route and classify
// messages without a model. Everything here is pure and deterministic.
package classify

import (
	"strings"
	"unicode/utf8"
)

// LengthThreshold is the character count above which a message counts as long.
const LengthThreshold = 100

// Indicators are the configured keyword lists used by brain-dump detection.
type Indicators struct {
	ActionKeywords         []string `yaml:"action_keywords" json:"action_keywords"`
	OrganizationalKeywords []string `yaml:"organizational_keywords" json:"organizational_keywords"`
}

// ExplicitTaskMarkers turn a model's note answer into a task when present.
var ExplicitTaskMarkers = []string{"task:", "todo:", "action:", "need to", "must"}

// Signals evaluates the six brain-dump signals in order:
// long text, >2 newlines, >3 periods, >4 commas, any action keyword,
// and more than two organizational-keyword words.
func Signals(text string, ind Indicators) []bool {
	lower := strings.ToLower(text)

	org := make(map[string]struct{}, len(ind.OrganizationalKeywords))
	for _, k := range ind.OrganizationalKeywords {
		org[strings.ToLower(k)] = struct{}{}
	}
	orgHits := 0
	for _, w := range strings.Fields(text) {
		if _, ok := org[strings.ToLower(w)]; ok {
			orgHits++
		}
	}

	return []bool{
		utf8.RuneCountInString(text) > LengthThreshold,
		strings.Count(text, "\n") > 2,
		strings.Count(text, ".") > 3,
		strings.Count(text, ",") > 4,
		ContainsAny(lower, ind.ActionKeywords),
		orgHits > 2,
	}
}

// IsBrainDump reports whether at least two signals fire.
func IsBrainDump(text string, ind Indicators) bool {
	n := 0
	for _, s := range Signals(text, ind) {
		if s {
			n++
		}
	}
	return n >= 2
}

// HasExplicitTaskMarker reports whether text carries one of ExplicitTaskMarkers.
func HasExplicitTaskMarker(text string) bool {
	return ContainsAny(strings.ToLower(text), ExplicitTaskMarkers)
}

// ContainsAny reports whether lower contains any keyword, compared case-insensitively.
// lower must already be lower-cased.
func ContainsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
