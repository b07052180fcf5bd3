package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// ValidationState is the reconciliation lifecycle state of a [TrackEntry].
type ValidationState int

const (
	Unvalidated ValidationState = iota
	Validating
	Validated
	NeedsSelection
	Error
)

func (s ValidationState) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Validating:
		return "validating"
	case Validated:
		return "validated"
	case NeedsSelection:
		return "needs_selection"
	case Error:
		return "error"
	default:
		return ""
	}
}

// ParseState converts the output of [ValidationState.String] back to a state.
func ParseState(s string) (ValidationState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unvalidated", "":
		return Unvalidated, nil
	case "validating":
		return Validating, nil
	case "validated":
		return Validated, nil
	case "needs_selection":
		return NeedsSelection, nil
	case "error":
		return Error, nil
	default:
		return Unvalidated, fmt.Errorf("unknown validation state %q", s)
	}
}

// MarshalText implements [encoding.TextMarshaler] so states serialize by name.
func (s ValidationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *ValidationState) UnmarshalText(b []byte) error {
	state, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// Origin records which surface produced a [TrackEntry].
type Origin string

const (
	OriginRecommendation Origin = "recommendation"
	OriginCatalog        Origin = "catalog"
	OriginSearch         Origin = "search"
	OriginManual         Origin = "manual"
)

// RecommendationMetadata holds the descriptive fields only a recommendation source produces.
type RecommendationMetadata struct {
	Notes           string `json:"notes,omitempty"`
	Tempo           int    `json:"tempo,omitempty"`
	Energy          int    `json:"energy,omitempty"`
	Genre           string `json:"genre,omitempty"`
	Mood            string `json:"mood,omitempty"`
	AllowVocals     *bool  `json:"allowVocals,omitempty"`
	EnergyRange     string `json:"energyRange,omitempty"`
	GenrePreference string `json:"genrePreference,omitempty"`
}

// ResolvedMatch is the catalog identity chosen for a validated entry.
type ResolvedMatch struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	ExternalURL string `json:"external_url"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// CandidateMatch is one catalog search hit with enough display metadata for a human to choose from.
type CandidateMatch struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	ExternalURL string   `json:"external_url"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	DurationMS  int      `json:"duration_ms"`
	Popularity  int      `json:"popularity"`

	Features *AudioFeatures `json:"audio_features,omitempty"`
}

// AudioFeatures are the catalog's acoustic descriptors for a track. Display only.
type AudioFeatures struct {
	Tempo        float64 `json:"tempo"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Valence      float64 `json:"valence"`
	Instrumental float64 `json:"instrumentalness"`
}

// Artist returns the candidate's artist names joined for display.
func (c CandidateMatch) Artist() string {
	return strings.Join(c.Artists, ", ")
}

// Resolved projects the identity fields of the candidate, dropping display-only metadata.
func (c CandidateMatch) Resolved() ResolvedMatch {
	return ResolvedMatch{
		ID:          c.ID,
		URI:         c.URI,
		ExternalURL: c.ExternalURL,
		PreviewURL:  c.PreviewURL,
	}
}

// TrackEntry is one item of the working playlist with its own validation lifecycle.
//
// Match is set only when State is [Validated], Candidates only when State is [NeedsSelection] and Error only when State is [Error].
type TrackEntry struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Artist     string                  `json:"artist"`
	Album      string                  `json:"album"`
	DurationMS int                     `json:"duration_ms"`
	SourceID   string                  `json:"source_id,omitempty"`
	SourceURI  string                  `json:"source_uri,omitempty"`
	Origin     Origin                  `json:"origin"`
	Metadata   *RecommendationMetadata `json:"metadata,omitempty"`
	State      ValidationState         `json:"state"`
	Match      *ResolvedMatch          `json:"match,omitempty"`
	Candidates []CandidateMatch        `json:"candidates,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Validated reports whether the entry has a resolved catalog identity.
func (e TrackEntry) Validated() bool {
	return e.State == Validated
}

// Playlist is the ordered working collection of [TrackEntry] values plus a display name.
type Playlist struct {
	Name    string       `json:"name"`
	Entries []TrackEntry `json:"entries"`
}

// Len returns the number of entries.
func (p Playlist) Len() int {
	return len(p.Entries)
}

// DurationMS returns the summed duration of all entries.
func (p Playlist) DurationMS() int {
	total := 0
	for _, e := range p.Entries {
		total += e.DurationMS
	}
	return total
}

// Counts tallies entries per [ValidationState].
func (p Playlist) Counts() map[ValidationState]int {
	counts := make(map[ValidationState]int, 5)
	for _, e := range p.Entries {
		counts[e.State]++
	}
	return counts
}

// RecommendationRecord is an ephemeral record produced by a recommendation source.
type RecommendationRecord struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Tempo           int    `json:"tempo,omitempty"`
	Energy          int    `json:"energy,omitempty"`
	Genre           string `json:"genre,omitempty"`
	Mood            string `json:"mood,omitempty"`
	AllowVocals     *bool  `json:"allowVocals,omitempty"`
	EnergyRange     string `json:"energyRange,omitempty"`
	GenrePreference string `json:"genrePreference,omitempty"`
	Duration        int    `json:"duration,omitempty"` // seconds
}

// PlaylistSummary is a provider playlist as returned by a playlist listing.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	Owner       string `json:"owner"`
}

// Preferences describes the music a user asks a recommendation source for.
type Preferences struct {
	TargetBPM       int    `json:"targetBPM"`
	Mood            string `json:"mood"`
	AllowVocals     bool   `json:"allowVocals"`
	EnergyRange     string `json:"energyRange,omitempty"`
	GenrePreference string `json:"genrePreference,omitempty"`
	SeedTrack       string `json:"seedTrack,omitempty"`
	SeedArtist      string `json:"seedArtist,omitempty"`
	SeedAlbum       string `json:"seedAlbum,omitempty"`
}

// Draft is a stored working playlist. The CLI keeps exactly one draft active between invocations.
type Draft struct {
	ID        string
	Sequence  int
	Playlist  Playlist
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
