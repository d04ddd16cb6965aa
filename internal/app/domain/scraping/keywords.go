package scraping

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// newAutomaton compiles a case-insensitive multi-pattern matcher. Pattern
// indices survive into matches, so callers that care about precedence can map
// a match back to the list that built the automaton.
func newAutomaton(patterns []string) ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	return builder.Build(patterns)
}

// containsAny reports whether any automaton pattern occurs in text.
func containsAny(ac ahocorasick.AhoCorasick, text string) bool {
	iter := ac.Iter(text)
	return iter.Next() != nil
}

// firstPattern returns the lowest pattern index matching anywhere in text,
// or -1. Lower index means higher precedence, regardless of where in the
// text the pattern appears.
func firstPattern(ac ahocorasick.AhoCorasick, text string) int {
	best := -1
	for _, match := range ac.FindAll(text) {
		if best == -1 || match.Pattern() < best {
			best = match.Pattern()
		}
	}
	return best
}
