package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

func TestSimpleAnnotator_Annotate(t *testing.T) {
	tokens := SimpleAnnotator{}.Annotate("Four robbers boarded. Thieves stole stores")
	require.Len(t, tokens, 7)

	assert.True(t, tokens[0].LikeNum)
	assert.Equal(t, POSNum, tokens[0].POS)
	assert.True(t, tokens[0].IsSentStart)

	assert.Equal(t, "robber", tokens[1].Lemma)
	assert.False(t, tokens[1].IsSentStart)

	assert.Equal(t, "board", tokens[2].Lemma)
	assert.Equal(t, POSVerb, tokens[2].POS)

	assert.Equal(t, POSPunct, tokens[3].POS)
	assert.False(t, tokens[3].IsAlpha)

	assert.True(t, tokens[4].IsSentStart)
	assert.Equal(t, "thief", tokens[4].Lemma)
	assert.Equal(t, "steal", tokens[5].Lemma)
	assert.Equal(t, "store", tokens[6].Lemma)
}

func TestLemmatize(t *testing.T) {
	tests := map[string]string{
		"kidnapped": "kidnap",
		"hostages":  "hostage",
		"seized":    "seize",
		"escaped":   "escape",
		"spotted":   "spot",
		"knives":    "knife",
		"were":      "be",
		"anchorage": "anchorage",
	}
	for word, want := range tests {
		assert.Equal(t, want, lemmatize(word), word)
	}
}

func TestFuzzyEqual(t *testing.T) {
	assert.True(t, fuzzyEqual("boarded", "boarded"))
	assert.True(t, fuzzyEqual("boardeed", "boarded"))
	assert.True(t, fuzzyEqual("board", "boarded"))
	assert.False(t, fuzzyEqual("boarding", "boarded"))
	assert.False(t, fuzzyEqual("to", "boarded"))
}

func TestMatcher_OptionalTokens(t *testing.T) {
	m := NewMatcher()
	m.Add("PERSON", Pattern{Opt(LowerIs("unknown")), T(LowerIs("person"))})

	got := m.Match(SimpleAnnotator{}.Annotate("an unknown person"))
	assert.Equal(t, []Match{
		{Label: "PERSON", Start: 1, End: 3},
		{Label: "PERSON", Start: 2, End: 3},
	}, got)
}

func TestMatcher_SkipsEmptyMatches(t *testing.T) {
	m := NewMatcher()
	m.Add("MAYBE", Pattern{Opt(LowerIs("x"))})

	assert.Empty(t, m.Match(SimpleAnnotator{}.Annotate("a b")))
	assert.Empty(t, m.Labels(SimpleAnnotator{}.Annotate("a b")))
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := []struct {
		name string
		text string
		want domain.AttackFeatures
	}{
		{
			name: "armed robbers boarded",
			text: "Four robbers armed with knives boarded the tanker.",
			want: domain.AttackFeatures{Boarded: true},
		},
		{
			name: "coast guard boarding is not an attack",
			text: "Coast guard officers boarded the vessel for inspection.",
			want: domain.AttackFeatures{},
		},
		{
			name: "attempt only",
			text: "Pirates attempted to board the ship.",
			want: domain.AttackFeatures{},
		},
		{
			name: "hijack with hostages",
			text: "Pirates hijacked the tanker and took the crew hostage.",
			want: domain.AttackFeatures{Boarded: true, Hijacked: true, HostagesTaken: true},
		},
		{
			name: "seized control",
			text: "Armed men seized control of the bulker.",
			want: domain.AttackFeatures{Boarded: true, Hijacked: true},
		},
		{
			name: "kidnapping",
			text: "Three crew members were kidnapped.",
			want: domain.AttackFeatures{Boarded: true, HostagesTaken: true},
		},
		{
			name: "sentence starting with boarded",
			text: "Boarded at anchor.",
			want: domain.AttackFeatures{Boarded: true},
		},
		{
			name: "theft",
			text: "Thieves stole ship stores.",
			want: domain.AttackFeatures{Boarded: true},
		},
		{
			name: "sighted",
			text: "Three pirates were sighted in a skiff.",
			want: domain.AttackFeatures{Boarded: true},
		},
		{
			name: "lock broken",
			text: "The store room lock was broken.",
			want: domain.AttackFeatures{Boarded: true},
		},
		{
			name: "empty",
			text: "",
			want: domain.AttackFeatures{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassifier_AssaultWithoutHijack(t *testing.T) {
	got := NewClassifier(nil, nil).Classify("Robbers assaulted the duty watchman.")
	assert.True(t, got.CrewAssaulted)
	assert.False(t, got.Hijacked)
	assert.False(t, got.HostagesTaken)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{LabelBoarded, LabelCrewAssaulted},
		Labels(domain.AttackFeatures{Boarded: true, CrewAssaulted: true}))
	assert.Empty(t, Labels(domain.AttackFeatures{}))
}
