package matcher

import (
	"fmt"
	"strings"

	"github.com/desertthunder/vibelist/internal/models"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// SearchOptions bounds and qualifies a catalog search.
type SearchOptions struct {
	Limit    int
	Genre    string
	YearFrom int
	YearTo   int
}

// BuildQuery joins name and artist with a single space.
func BuildQuery(name, artist string) string {
	return name + " " + artist
}

// ForEntry builds the query for a playlist entry.
func ForEntry(e models.TrackEntry) string {
	return BuildQuery(e.Name, e.Artist)
}

// ForRecord builds the query for a recommendation record.
func ForRecord(r models.RecommendationRecord) string {
	return BuildQuery(r.Title, r.Artist)
}

// Qualify appends the genre and year qualifiers to query.
func (o SearchOptions) Qualify(query string) string {
	var b strings.Builder
	b.WriteString(query)

	if o.Genre != "" {
		fmt.Fprintf(&b, " genre:%s", o.Genre)
	}

	switch {
	case o.YearFrom > 0 && o.YearTo > 0:
		fmt.Fprintf(&b, " year:%d-%d", o.YearFrom, o.YearTo)
	case o.YearFrom > 0:
		fmt.Fprintf(&b, " year:%d", o.YearFrom)
	case o.YearTo > 0:
		fmt.Fprintf(&b, " year:%d", o.YearTo)
	}

	return b.String()
}

// ClampedLimit returns Limit bounded to [1, MaxSearchLimit], defaulting to DefaultSearchLimit.
func (o SearchOptions) ClampedLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultSearchLimit
	case o.Limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return o.Limit
	}
}
