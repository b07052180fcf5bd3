package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
)

// BestHint returns the index of the candidate a selection UI should highlight, or -1 for an empty list.
//
// Candidates whose name contains the title and whose artists contain the artist win outright, in catalog order.
// Otherwise the highest Jaro-Winkler similarity of "title artist" wins. The hint never feeds back into [Resolve].
func BestHint(name, artist string, candidates []models.CandidateMatch) int {
	if len(candidates) == 0 {
		return -1
	}

	title := shared.NormalizeText(name)
	who := shared.NormalizeText(artist)
	for i, c := range candidates {
		if strings.Contains(shared.NormalizeText(c.Name), title) &&
			strings.Contains(shared.NormalizeText(c.Artist()), who) {
			return i
		}
	}

	query := BuildQuery(title, who)
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	best, bestScore := 0, -1.0
	for i, c := range candidates {
		score := strutil.Similarity(query, BuildQuery(c.Name, c.Artist()), jw)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Similarity scores how close candidate c is to the record, in [0, 1], for display.
func Similarity(name, artist string, c models.CandidateMatch) float64 {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	return strutil.Similarity(BuildQuery(name, artist), BuildQuery(c.Name, c.Artist()), jw)
}
