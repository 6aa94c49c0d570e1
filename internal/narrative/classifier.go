package narrative

import "github.com/couchcryptid/piracy-data-etl-service/internal/domain"

// Classifier turns a narrative into AttackFeatures.
type Classifier struct {
	annotator Annotator
	matcher   *Matcher
}

// NewClassifier builds a Classifier. Nil arguments select SimpleAnnotator and
// DefaultMatcher.
func NewClassifier(a Annotator, m *Matcher) *Classifier {
	if a == nil {
		a = SimpleAnnotator{}
	}
	if m == nil {
		m = DefaultMatcher()
	}
	return &Classifier{annotator: a, matcher: m}
}

// Classify annotates text and reports which feature labels matched.
func (c *Classifier) Classify(text string) domain.AttackFeatures {
	labels := c.matcher.Labels(c.annotator.Annotate(text))
	return domain.AttackFeatures{
		Boarded:       labels[LabelBoarded],
		Hijacked:      labels[LabelHijacked],
		HostagesTaken: labels[LabelHostagesTaken],
		CrewAssaulted: labels[LabelCrewAssaulted],
	}
}

// Labels returns the names of the features set in f, in a fixed order.
func Labels(f domain.AttackFeatures) []string {
	var out []string
	if f.Boarded {
		out = append(out, LabelBoarded)
	}
	if f.Hijacked {
		out = append(out, LabelHijacked)
	}
	if f.HostagesTaken {
		out = append(out, LabelHostagesTaken)
	}
	if f.CrewAssaulted {
		out = append(out, LabelCrewAssaulted)
	}
	return out
}
