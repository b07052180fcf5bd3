package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
)

var (
	_ list.Item = entryItem{}
	_ list.Item = candidateItem{}
)

// entryItem wraps a [models.TrackEntry] awaiting selection to implement [list.Item].
type entryItem struct {
	entry models.TrackEntry
}

func (i entryItem) FilterValue() string { return i.entry.Name + " " + i.entry.Artist }
func (i entryItem) Title() string       { return i.entry.Name }
func (i entryItem) Description() string {
	return fmt.Sprintf("%s • %d candidates", i.entry.Artist, len(i.entry.Candidates))
}

// candidateItem wraps a [models.CandidateMatch] to implement [list.Item].
type candidateItem struct {
	candidate models.CandidateMatch
	score     float64
	best      bool
}

func (i candidateItem) FilterValue() string { return i.candidate.Name }
func (i candidateItem) Title() string {
	if i.best {
		return i.candidate.Name + " ★"
	}
	return i.candidate.Name
}

func (i candidateItem) Description() string {
	parts := []string{i.candidate.Artist()}
	if i.candidate.Album != "" {
		parts = append(parts, i.candidate.Album)
	}
	parts = append(parts,
		shared.FormatDuration(i.candidate.DurationMS),
		fmt.Sprintf("%.0f%% match", i.score*100),
	)
	if f := i.candidate.Features; f != nil && f.Tempo > 0 {
		parts = append(parts, fmt.Sprintf("%.0f BPM", f.Tempo))
	}
	return strings.Join(parts, " • ")
}

func entryItems(entries []models.TrackEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}

// candidateItems wraps the candidates of e and returns the index of the hinted one.
func candidateItems(e models.TrackEntry) ([]list.Item, int) {
	hint := matcher.BestHint(e.Name, e.Artist, e.Candidates)
	items := make([]list.Item, len(e.Candidates))
	for i, c := range e.Candidates {
		items[i] = candidateItem{
			candidate: c,
			score:     matcher.Similarity(e.Name, e.Artist, c),
			best:      i == hint,
		}
	}
	return items, hint
}
