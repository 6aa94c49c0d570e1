package narrative

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?|\d+(?:[.,:]\d+)*|[^\sA-Za-z\d]`)

// SimpleAnnotator is a rule-based English annotator tuned to incident
// reports: a closed lexicon of domain lemmas plus suffix stripping, and a
// verb tag for inflected forms of known verbs.
type SimpleAnnotator struct{}

// Annotate tokenises text and fills in lemma, POS, and lexical flags.
func (SimpleAnnotator) Annotate(text string) []Token {
	words := tokenPattern.FindAllString(text, -1)
	tokens := make([]Token, len(words))
	sentStart := true
	for i, w := range words {
		lower := strings.ToLower(w)
		t := Token{
			Text:        w,
			Lower:       lower,
			Lemma:       lemmatize(lower),
			IsAlpha:     isAlpha(w),
			LikeNum:     likeNum(lower),
			IsSentStart: sentStart,
		}
		var prev string
		if i > 0 {
			prev = tokens[i-1].Lower
		}
		t.POS = tag(t, prev)
		tokens[i] = t
		sentStart = lower == "." || lower == "!" || lower == "?"
	}
	return tokens
}

func tag(t Token, prev string) string {
	switch {
	case auxiliaries[t.Lower]:
		return POSAux
	case t.LikeNum:
		return POSNum
	case !t.IsAlpha:
		return POSPunct
	case determiners[t.Lower]:
		return POSDet
	case verbs[t.Lemma] && (t.Lower != t.Lemma || verbCues[prev]):
		return POSVerb
	case nouns[t.Lemma]:
		return POSNoun
	default:
		return POSOther
	}
}

// lemmatize returns the dictionary form of a lowercase word.
func lemmatize(w string) string {
	if l, ok := irregular[w]; ok {
		return l
	}
	if verbs[w] || nouns[w] {
		return w
	}
	for _, c := range candidates(w) {
		if verbs[c] || nouns[c] {
			return c
		}
	}
	return w
}

// candidates proposes stems for an inflected word, most likely first.
func candidates(w string) []string {
	var out []string
	stem := func(suffix string) (string, bool) {
		if len(w) > len(suffix)+1 && strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix), true
		}
		return "", false
	}
	if s, ok := stem("ies"); ok {
		out = append(out, s+"y")
	}
	if s, ok := stem("ied"); ok {
		out = append(out, s+"y")
	}
	for _, suffix := range []string{"ed", "ing"} {
		if s, ok := stem(suffix); ok {
			out = append(out, s, s+"e")
			if n := len(s); n > 2 && s[n-1] == s[n-2] {
				out = append(out, s[:n-1])
			}
		}
	}
	if s, ok := stem("es"); ok {
		out = append(out, s)
	}
	if s, ok := stem("s"); ok && !strings.HasSuffix(w, "ss") {
		out = append(out, s)
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func likeNum(s string) bool {
	if s == "" {
		return false
	}
	digits := true
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != ':' {
			digits = false
			break
		}
	}
	if digits && unicode.IsDigit(rune(s[0])) {
		return true
	}
	return numberWords[s]
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	auxiliaries = set("be", "is", "are", "was", "were", "been", "being", "am", "has", "have", "had")
	determiners = set("a", "an", "the", "this", "that", "these", "those", "its", "their", "his", "her")
	verbCues    = set("to", "will", "would", "could", "can", "did", "not", "may", "might", "must", "should")

	numberWords = set("zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
		"eighteen", "nineteen", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
		"eighty", "ninety", "hundred", "thousand", "million")

	verbs = set("abduct", "alert", "approach", "arm", "assault", "attack", "attempt", "board",
		"break", "climb", "disembark", "enter", "escape", "fire", "flee", "hijack", "hold",
		"injure", "inform", "jump", "kidnap", "leave", "lock", "manage", "muster", "notice",
		"order", "proceed", "raise", "report", "return", "rob", "search", "seize", "shoot",
		"sight", "spot", "steal", "take", "threaten", "tie", "try", "use")

	nouns = set("authority", "barge", "boat", "bulker", "container", "crew", "door", "engine",
		"guard", "hostage", "item", "knife", "mooring", "officer", "person", "personnel",
		"perpetrator", "pirate", "police", "robber", "rope", "ship", "skiff", "stern", "store",
		"tanker", "thief", "vessel", "watchman", "weapon")

	irregular = map[string]string{
		"is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be", "am": "be",
		"has": "have", "had": "have",
		"stole": "steal", "stolen": "steal",
		"broke": "break", "broken": "break",
		"took": "take", "taken": "take",
		"fled": "flee",
		"held": "hold",
		"left": "leave",
		"shot": "shoot",
		"thieves": "thief",
		"knives": "knife",
		"people": "people",
		"crewmen": "crewman",
	}
)
