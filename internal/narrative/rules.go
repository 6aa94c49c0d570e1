package narrative

// Labels produced by DefaultMatcher.
const (
	LabelBoarded       = "BOARDED"
	LabelHijacked      = "HIJACKED"
	LabelHostagesTaken = "HOSTAGES_TAKEN"
	LabelCrewAssaulted = "CREW_ASSAULTED"
)

var attackers = []string{"robber", "pirate", "thief", "perpetrator"}

// DefaultMatcher returns the rule set for IMO incident narratives. Hijackings
// and hostage takings also count as boardings.
func DefaultMatcher() *Matcher {
	hijack := []Pattern{
		{T(LemmaIs("hijack"))},
		{T(LemmaIs("seize")), T(LowerIs("control"))},
	}
	hostage := Pattern{T(LemmaIn("abduct", "kidnap", "hostage"))}

	boarded := []Pattern{
		// three-token window so "guard officers boarded" is excluded
		{
			T(LowerNotIn("police", "guard", "officers", "authority", "personnel", "attempting", "alongside")),
			T(LowerNotIn("police", "guard", "officers", "authority", "personnel", "to")),
			T(POS(POSVerb), LowerFuzzy("boarded")),
		},
		{T(LowerIn("knives")), T(LowerIs("onboard"))},
		{T(LemmaIn("seize"))},
		// unknown person escaped
		{Opt(LowerIn("unknown")), T(LemmaIn("person", "robber", "perpetrator")), T(LemmaIs("escape"))},
		// spotted 4 pirates
		{T(LemmaIn("spot")), T(LikeNum()), T(LemmaIn("pirate"))},
		{T(LemmaIn(attackers...)), T(LemmaIn("steal", "disembark"))},
		// managed to climb
		{T(LemmaIn("manage", "climb")), Opt(IsAlpha()), T(LowerIn("climb", "board", "escape"))},
		// climbed on board
		{T(LowerIn("climbed")), Opt(IsAlpha()), T(LowerIs("board"))},
		// robbers on board
		{T(LemmaIn(attackers...)), Opt(LowerIn("were", "on")), T(LemmaIs("board")), Opt(LowerNotIn("attempted"))},
		// on board were pirates
		{T(LemmaIs("board")), Opt(IsAlpha()), T(LemmaIn(attackers...))},
		// robbers jumped overboard
		{Opt(LemmaIn(attackers...)), T(LemmaIn("break", "jump")), T(LowerIn("into", "overboard"))},
		// lock was broken
		{T(LowerIn("lock", "door")), Opt(LowerIs("was")), T(LemmaIs("break"))},
		{T(LowerIs("on")), T(LemmaIs("board")), T(LowerIs("barge"))},
		{T(LemmaIn(attackers...)), T(LowerIs("were")), T(LowerIs("sighted")), T(LowerIs("in"))},
		{T(LowerIs("boarded"), SentStart())},
		{T(LemmaIs("steal")), T(LowerIs("mooring"))},
		{T(LowerIs("on")), T(LowerIs("the")), T(LowerIs("stern"))},
	}
	boarded = append(boarded, hijack...)
	boarded = append(boarded, hostage)

	m := NewMatcher()
	m.Add(LabelBoarded, boarded...)
	m.Add(LabelHijacked, hijack...)
	m.Add(LabelHostagesTaken, hostage)
	m.Add(LabelCrewAssaulted, Pattern{T(LemmaIs("assault"))})
	return m
}
