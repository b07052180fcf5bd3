package matcher

import (
	"strings"

	"github.com/desertthunder/vibelist/internal/models"
)

// OutcomeKind classifies the result of [Resolve].
type OutcomeKind int

const (
	NoMatch OutcomeKind = iota
	ExactMatch
	MultipleMatches
)

func (k OutcomeKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case ExactMatch:
		return "exact_match"
	case MultipleMatches:
		return "multiple_matches"
	default:
		return ""
	}
}

// Outcome is the resolution of one record against a candidate list.
//
// Match is set for [ExactMatch]; Candidates holds the full list for [MultipleMatches].
type Outcome struct {
	Kind       OutcomeKind
	Match      *models.CandidateMatch
	Candidates []models.CandidateMatch
}

// Resolve classifies candidates for the record identified by name and artist.
func Resolve(name, artist string, candidates []models.CandidateMatch) Outcome {
	if len(candidates) == 0 {
		return Outcome{Kind: NoMatch}
	}

	if i := FindExact(name, artist, candidates); i >= 0 {
		match := candidates[i]
		return Outcome{Kind: ExactMatch, Match: &match}
	}

	return Outcome{Kind: MultipleMatches, Candidates: candidates}
}

// ResolveEntry is [Resolve] for a playlist entry.
func ResolveEntry(e models.TrackEntry, candidates []models.CandidateMatch) Outcome {
	return Resolve(e.Name, e.Artist, candidates)
}

// FindExact returns the index of the first exact candidate or -1.
func FindExact(name, artist string, candidates []models.CandidateMatch) int {
	for i, c := range candidates {
		if IsExact(name, artist, c) {
			return i
		}
	}
	return -1
}

// IsExact reports whether c's name equals name and any of its artists equals artist, ignoring case.
func IsExact(name, artist string, c models.CandidateMatch) bool {
	if !strings.EqualFold(c.Name, name) {
		return false
	}
	for _, a := range c.Artists {
		if strings.EqualFold(a, artist) {
			return true
		}
	}
	return false
}
