// Package narrative derives categorical attack features from free-text
// incident narratives with token-level pattern rules. Tokenisation, lemmas, and
// part-of-speech tags come from an Annotator; the rules only see Tokens.
package narrative

// Part-of-speech tags used by the rules.
const (
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSNoun  = "NOUN"
	POSNum   = "NUM"
	POSDet   = "DET"
	POSPunct = "PUNCT"
	POSOther = "X"
)

// Token is one annotated word or punctuation mark.
type Token struct {
	Text        string
	Lower       string
	Lemma       string
	POS         string
	IsAlpha     bool
	LikeNum     bool
	IsSentStart bool
}

// Annotator turns text into annotated tokens.
type Annotator interface {
	Annotate(text string) []Token
}
