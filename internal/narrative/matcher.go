package narrative

import (
	"math"
	"slices"

	"github.com/agnivade/levenshtein"
)

// Check is a predicate over a single token.
type Check func(Token) bool

// TokenSpec matches one token when every check passes. An Optional spec may
// also match zero tokens.
type TokenSpec struct {
	Checks   []Check
	Optional bool
}

// T builds a required TokenSpec.
func T(checks ...Check) TokenSpec { return TokenSpec{Checks: checks} }

// Opt builds an optional TokenSpec.
func Opt(checks ...Check) TokenSpec { return TokenSpec{Checks: checks, Optional: true} }

func (s TokenSpec) matches(t Token) bool {
	for _, c := range s.Checks {
		if !c(t) {
			return false
		}
	}
	return true
}

// Pattern is a sequence of token specs.
type Pattern []TokenSpec

// LowerIs matches the lowercase form exactly.
func LowerIs(w string) Check { return func(t Token) bool { return t.Lower == w } }

// LowerIn matches when the lowercase form is one of words.
func LowerIn(words ...string) Check {
	m := set(words...)
	return func(t Token) bool { return m[t.Lower] }
}

// LowerNotIn matches when the lowercase form is none of words.
func LowerNotIn(words ...string) Check {
	m := set(words...)
	return func(t Token) bool { return !m[t.Lower] }
}

// LowerFuzzy matches lowercase forms within a small edit distance of w.
func LowerFuzzy(w string) Check {
	return func(t Token) bool { return fuzzyEqual(t.Lower, w) }
}

// LemmaIs matches the lemma exactly.
func LemmaIs(l string) Check { return func(t Token) bool { return t.Lemma == l } }

// LemmaIn matches when the lemma is one of lemmas.
func LemmaIn(lemmas ...string) Check {
	m := set(lemmas...)
	return func(t Token) bool { return m[t.Lemma] }
}

// POS matches the part-of-speech tag.
func POS(tag string) Check { return func(t Token) bool { return t.POS == tag } }

// LikeNum matches digits and number words.
func LikeNum() Check { return func(t Token) bool { return t.LikeNum } }

// IsAlpha matches purely alphabetic tokens.
func IsAlpha() Check { return func(t Token) bool { return t.IsAlpha } }

// SentStart matches the first token of a sentence.
func SentStart() Check { return func(t Token) bool { return t.IsSentStart } }

// fuzzyEqual allows max(2, round(0.3*len(pattern))) edits, never more than
// the shorter of the two strings so that tiny tokens cannot match anything.
func fuzzyEqual(s, pattern string) bool {
	if s == pattern {
		return true
	}
	limit := max(2, int(math.Round(0.3*float64(len(pattern)))))
	limit = min(limit, len(s), len(pattern))
	if d := len(s) - len(pattern); d > limit || -d > limit {
		return false
	}
	return levenshtein.ComputeDistance(s, pattern) <= limit
}

// Match is a labelled half-open token span [Start, End).
type Match struct {
	Label string
	Start int
	End   int
}

type rule struct {
	label   string
	pattern Pattern
}

// Matcher finds every span of a token sequence that matches one of its
// labelled patterns.
type Matcher struct {
	rules []rule
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher { return &Matcher{} }

// Add registers patterns under label.
func (m *Matcher) Add(label string, patterns ...Pattern) {
	for _, p := range patterns {
		m.rules = append(m.rules, rule{label: label, pattern: p})
	}
}

// Match returns all distinct non-empty matches ordered by start, end, and
// registration order of the label.
func (m *Matcher) Match(tokens []Token) []Match {
	var out []Match
	seen := make(map[Match]bool)
	for start := range tokens {
		for _, r := range m.rules {
			for _, end := range matchFrom(tokens, start, r.pattern) {
				if end == start {
					continue
				}
				mt := Match{Label: r.label, Start: start, End: end}
				if !seen[mt] {
					seen[mt] = true
					out = append(out, mt)
				}
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})
	return out
}

// Labels returns the set of labels with at least one match.
func (m *Matcher) Labels(tokens []Token) map[string]bool {
	labels := make(map[string]bool)
	for start := range tokens {
		for _, r := range m.rules {
			if labels[r.label] {
				continue
			}
			for _, end := range matchFrom(tokens, start, r.pattern) {
				if end > start {
					labels[r.label] = true
					break
				}
			}
		}
	}
	return labels
}

// matchFrom returns every end position at which pattern matches tokens
// beginning at pos.
func matchFrom(tokens []Token, pos int, pattern Pattern) []int {
	if len(pattern) == 0 {
		return []int{pos}
	}
	spec, rest := pattern[0], pattern[1:]
	var ends []int
	if pos < len(tokens) && spec.matches(tokens[pos]) {
		ends = append(ends, matchFrom(tokens, pos+1, rest)...)
	}
	if spec.Optional {
		ends = append(ends, matchFrom(tokens, pos, rest)...)
	}
	return ends
}
