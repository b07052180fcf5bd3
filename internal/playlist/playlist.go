package playlist

import (
	"slices"

	"github.com/desertthunder/vibelist/internal/models"
)

// New returns an empty playlist with the given display name.
func New(name string) models.Playlist {
	return models.Playlist{Name: name, Entries: []models.TrackEntry{}}
}

// Append adds entry at the end under a fresh id derived from entry.SourceID (or entry.ID).
//
// The id never collides with an id already in p, even when the same source is appended repeatedly.
func Append(p models.Playlist, entry models.TrackEntry, ids IDGenerator) models.Playlist {
	next, _ := AppendEntry(p, entry, ids)
	return next
}

// AppendEntry is [Append] that also returns the stored entry with its assigned id.
func AppendEntry(p models.Playlist, entry models.TrackEntry, ids IDGenerator) (models.Playlist, models.TrackEntry) {
	base := entry.SourceID
	if base == "" {
		base = entry.ID
	}
	if base == "" {
		base = Slug(entry.Name)
	}
	if base == "" {
		base = "track"
	}

	id := ids.NextID(base)
	for Index(p, id) >= 0 {
		id = ids.NextID(base)
	}

	entry.ID = id
	entry.Candidates = slices.Clone(entry.Candidates)
	if entry.Match != nil {
		m := *entry.Match
		entry.Match = &m
	}

	entries := make([]models.TrackEntry, len(p.Entries), len(p.Entries)+1)
	copy(entries, p.Entries)
	return models.Playlist{Name: p.Name, Entries: append(entries, entry)}, entry
}

// Remove drops the entry with id. Unknown ids leave p unchanged.
func Remove(p models.Playlist, id string) models.Playlist {
	i := Index(p, id)
	if i < 0 {
		return p
	}
	entries := make([]models.TrackEntry, 0, len(p.Entries)-1)
	entries = append(entries, p.Entries[:i]...)
	entries = append(entries, p.Entries[i+1:]...)
	return models.Playlist{Name: p.Name, Entries: entries}
}

// Reorder moves the entry activeID to the position currently held by overID, shifting the entries in between.
//
// Returns p itself when either id is missing or they are equal.
func Reorder(p models.Playlist, activeID, overID string) models.Playlist {
	if activeID == overID {
		return p
	}
	from, to := Index(p, activeID), Index(p, overID)
	if from < 0 || to < 0 {
		return p
	}

	entries := slices.Clone(p.Entries)
	moved := entries[from]
	entries = slices.Delete(entries, from, from+1)
	entries = slices.Insert(entries, to, moved)
	return models.Playlist{Name: p.Name, Entries: entries}
}

// Move is [Reorder] by position: the entry id is placed at index to, clamped to the playlist bounds.
func Move(p models.Playlist, id string, to int) models.Playlist {
	if len(p.Entries) == 0 {
		return p
	}
	to = max(0, min(to, len(p.Entries)-1))
	return Reorder(p, id, p.Entries[to].ID)
}

// Rename sets the display name.
func Rename(p models.Playlist, name string) models.Playlist {
	return models.Playlist{Name: name, Entries: p.Entries}
}

// Index returns the position of id or -1.
func Index(p models.Playlist, id string) int {
	return slices.IndexFunc(p.Entries, func(e models.TrackEntry) bool { return e.ID == id })
}

// Find returns the entry with id.
func Find(p models.Playlist, id string) (models.TrackEntry, bool) {
	i := Index(p, id)
	if i < 0 {
		return models.TrackEntry{}, false
	}
	return p.Entries[i], true
}

// Eligible returns the entries batch validation should target: Unvalidated with no error, in playlist order.
func Eligible(p models.Playlist) []models.TrackEntry {
	var out []models.TrackEntry
	for _, e := range p.Entries {
		if e.State == models.Unvalidated && e.Error == "" {
			out = append(out, e)
		}
	}
	return out
}

// Filter returns the entries in state s, in playlist order.
func Filter(p models.Playlist, s models.ValidationState) []models.TrackEntry {
	var out []models.TrackEntry
	for _, e := range p.Entries {
		if e.State == s {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns entry ids in order.
func IDs(p models.Playlist) []string {
	ids := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.ID
	}
	return ids
}

// replace returns a copy of p with entry i swapped for e.
func replace(p models.Playlist, i int, e models.TrackEntry) models.Playlist {
	entries := slices.Clone(p.Entries)
	entries[i] = e
	return models.Playlist{Name: p.Name, Entries: entries}
}
