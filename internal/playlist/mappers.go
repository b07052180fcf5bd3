package playlist

import (
	"strings"

	"github.com/desertthunder/vibelist/internal/models"
)

// FromRecommendation maps a recommendation record to an Unvalidated entry.
//
// The source id is a slug of title and artist; [Append] assigns the final id.
func FromRecommendation(r models.RecommendationRecord) models.TrackEntry {
	artist := orDefault(r.Artist, models.UnknownArtist)
	source := Slug(r.Title + " " + artist)

	var meta *models.RecommendationMetadata
	if r.Notes != "" || r.Tempo != 0 || r.Energy != 0 || r.Genre != "" || r.Mood != "" ||
		r.AllowVocals != nil || r.EnergyRange != "" || r.GenrePreference != "" {
		meta = &models.RecommendationMetadata{
			Notes:           r.Notes,
			Tempo:           r.Tempo,
			Energy:          r.Energy,
			Genre:           r.Genre,
			Mood:            r.Mood,
			AllowVocals:     r.AllowVocals,
			EnergyRange:     r.EnergyRange,
			GenrePreference: r.GenrePreference,
		}
	}

	return models.TrackEntry{
		ID:         source,
		Name:       strings.TrimSpace(r.Title),
		Artist:     artist,
		Album:      orDefault(r.Album, models.UnknownAlbum),
		DurationMS: max(r.Duration, 0) * 1000,
		SourceID:   source,
		Origin:     models.OriginRecommendation,
		Metadata:   meta,
		State:      models.Unvalidated,
	}
}

// FromRecommendations maps records in order.
func FromRecommendations(records []models.RecommendationRecord) []models.TrackEntry {
	entries := make([]models.TrackEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, FromRecommendation(r))
	}
	return entries
}

// FromCandidate maps a catalog hit to an entry that is already Validated.
//
// origin is [models.OriginCatalog] or [models.OriginSearch]; anything else becomes OriginCatalog.
func FromCandidate(c models.CandidateMatch, origin models.Origin) models.TrackEntry {
	if origin != models.OriginSearch {
		origin = models.OriginCatalog
	}

	artist := models.UnknownArtist
	if len(c.Artists) > 0 && strings.TrimSpace(c.Artists[0]) != "" {
		artist = c.Artists[0]
	}

	m := c.Resolved()
	return models.TrackEntry{
		ID:         c.ID,
		Name:       c.Name,
		Artist:     artist,
		Album:      orDefault(c.Album, models.UnknownAlbum),
		DurationMS: max(c.DurationMS, 0),
		SourceID:   c.ID,
		SourceURI:  c.URI,
		Origin:     origin,
		State:      models.Validated,
		Match:      &m,
	}
}

// FromManual builds an Unvalidated entry typed in by the user.
func FromManual(title, artist, album string, durationMS int) models.TrackEntry {
	artist = orDefault(artist, models.UnknownArtist)
	source := Slug(title + " " + artist)
	return models.TrackEntry{
		ID:         source,
		Name:       strings.TrimSpace(title),
		Artist:     artist,
		Album:      orDefault(album, models.UnknownAlbum),
		DurationMS: max(durationMS, 0),
		SourceID:   source,
		Origin:     models.OriginManual,
		State:      models.Unvalidated,
	}
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
