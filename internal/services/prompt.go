package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/vibelist/internal/models"
)

const systemPrompt = `You are a music discovery assistant. Recommend songs that fit the listener's tempo, mood and genre preferences.
Respond with a JSON array of 5 to 10 objects, each with the fields:
- title (string): the song title
- artist (string): the performing artist
- notes (string): a short description of the song's vibe
- tempo (number): beats per minute
- energy (number): 0-100
- genre (string)
- mood (string)
- allowVocals (boolean): false means the song must be instrumental
- energyRange (string): "low", "medium" or "high"
- genrePreference (string): the genre the listener asked for
- duration (number): length in seconds

When a seed track is given it must be the first object in the array.
Do not include catalog identifiers or links; those are resolved separately.`

// Prompt is a system/user message pair for a chat completion.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the chat messages requesting recommendations for prefs.
func BuildPrompt(prefs models.Preferences) Prompt {
	var b strings.Builder

	kind := "songs"
	if !prefs.AllowVocals {
		kind = "instrumental songs"
	}
	fmt.Fprintf(&b, "Find %s around %d BPM that feel %s", kind, prefs.TargetBPM, prefs.Mood)
	if prefs.EnergyRange != "" {
		fmt.Fprintf(&b, " and have %s energy", prefs.EnergyRange)
	}
	b.WriteString(".\n")

	b.WriteString(seedLine(prefs))
	b.WriteByte('\n')

	if prefs.GenrePreference != "" {
		fmt.Fprintf(&b, "Favor the %s genre.\n", prefs.GenrePreference)
	}
	b.WriteString("Respond in properly formatted JSON only, with no surrounding text or code fences.")

	return Prompt{System: systemPrompt, User: b.String()}
}

func seedLine(p models.Preferences) string {
	track, artist, album := p.SeedTrack, p.SeedArtist, p.SeedAlbum
	switch {
	case track == "" && artist == "" && album == "":
		return "Recommend songs based on the above criteria."
	case artist == "" && album == "":
		return fmt.Sprintf("Recommend songs similar to %q.", track)
	case track == "" && album == "":
		return fmt.Sprintf("Recommend songs by %q.", artist)
	case track == "" && artist == "":
		return fmt.Sprintf("Recommend songs from the album %q.", album)
	}

	parts := []string{"Recommend songs"}
	if track != "" {
		parts = append(parts, fmt.Sprintf("similar to %q", track))
	}
	if artist != "" {
		parts = append(parts, fmt.Sprintf("by %q", artist))
	}
	if album != "" {
		parts = append(parts, fmt.Sprintf("from the album %q", album))
	}
	return strings.Join(parts, " ") + "."
}
