package matcher

import (
	"reflect"
	"testing"

	"github.com/desertthunder/vibelist/internal/models"
)

func candidate(id, name string, artists ...string) models.CandidateMatch {
	return models.CandidateMatch{
		ID:          id,
		URI:         "spotify:track:" + id,
		ExternalURL: "https://open.spotify.com/track/" + id,
		Name:        name,
		Artists:     artists,
		Album:       "Album " + id,
		DurationMS:  200000,
		Popularity:  50,
	}
}

func TestResolve(t *testing.T) {
	t.Run("empty candidates is NoMatch", func(t *testing.T) {
		for _, cands := range [][]models.CandidateMatch{nil, {}} {
			out := Resolve("Imagine", "John Lennon", cands)
			if out.Kind != NoMatch {
				t.Errorf("expected NoMatch, got %v", out.Kind)
			}
			if out.Match != nil || out.Candidates != nil {
				t.Error("NoMatch should carry no match data")
			}
		}
	})

	t.Run("exact match on first candidate", func(t *testing.T) {
		cands := []models.CandidateMatch{
			candidate("1", "Whole Lotta Love", "Led Zeppelin"),
			candidate("2", "Whole Lotta Love - Live", "Led Zeppelin"),
		}

		out := Resolve("Whole Lotta Love", "Led Zeppelin", cands)
		if out.Kind != ExactMatch {
			t.Fatalf("expected ExactMatch, got %v", out.Kind)
		}
		if out.Match.ID != "1" {
			t.Errorf("expected candidate 1, got %s", out.Match.ID)
		}
	})

	t.Run("exact match regardless of position", func(t *testing.T) {
		for pos := 0; pos < 4; pos++ {
			cands := []models.CandidateMatch{
				candidate("a", "Other", "Someone"),
				candidate("b", "Another", "Someone Else"),
				candidate("c", "Third", "Nobody"),
			}
			exact := candidate("x", "back in black", "Other Artist", "ac/dc")
			cands = append(cands[:pos], append([]models.CandidateMatch{exact}, cands[pos:]...)...)

			out := Resolve("Back In Black", "AC/DC", cands)
			if out.Kind != ExactMatch || out.Match.ID != "x" {
				t.Errorf("position %d: expected ExactMatch on x, got %v %+v", pos, out.Kind, out.Match)
			}
		}
	})

	t.Run("first qualifying candidate wins ties", func(t *testing.T) {
		cands := []models.CandidateMatch{
			candidate("a", "Nope", "Led Zeppelin"),
			candidate("b", "WHOLE LOTTA LOVE", "LED ZEPPELIN"),
			candidate("c", "Whole Lotta Love", "Led Zeppelin"),
		}

		out := Resolve("Whole Lotta Love", "Led Zeppelin", cands)
		if out.Kind != ExactMatch || out.Match.ID != "b" {
			t.Errorf("expected first exact candidate b, got %+v", out.Match)
		}
	})

	t.Run("single non-exact candidate needs selection", func(t *testing.T) {
		cands := []models.CandidateMatch{candidate("1", "Imagine (Remastered)", "John Lennon")}

		out := Resolve("Imagine", "John Lennon", cands)
		if out.Kind != MultipleMatches {
			t.Fatalf("expected MultipleMatches, got %v", out.Kind)
		}
		if len(out.Candidates) != 1 || out.Match != nil {
			t.Errorf("expected one candidate and no match, got %+v", out)
		}
	})

	t.Run("non-exact list is returned unchanged", func(t *testing.T) {
		cands := []models.CandidateMatch{
			candidate("3", "Song (Live)", "Band"),
			candidate("1", "Song", "Different Band"),
			candidate("2", "Song - Remix", "Band", "DJ"),
		}

		out := Resolve("Song", "Band", cands)
		if out.Kind != MultipleMatches {
			t.Fatalf("expected MultipleMatches, got %v", out.Kind)
		}
		if !reflect.DeepEqual(out.Candidates, cands) {
			t.Errorf("candidates changed: got %+v", out.Candidates)
		}
	})

	t.Run("artist must match one of the artists exactly", func(t *testing.T) {
		cands := []models.CandidateMatch{candidate("1", "Under Pressure", "Queen & David Bowie")}
		if out := Resolve("Under Pressure", "Queen", cands); out.Kind != MultipleMatches {
			t.Errorf("substring artist should not be exact, got %v", out.Kind)
		}

		cands = []models.CandidateMatch{candidate("1", "Under Pressure", "Queen", "David Bowie")}
		if out := Resolve("Under Pressure", "david bowie", cands); out.Kind != ExactMatch {
			t.Errorf("second artist should be exact, got %v", out.Kind)
		}
	})

	t.Run("ResolveEntry uses entry name and artist", func(t *testing.T) {
		entry := models.TrackEntry{Name: "Imagine", Artist: "John Lennon"}
		out := ResolveEntry(entry, []models.CandidateMatch{candidate("1", "imagine", "john lennon")})
		if out.Kind != ExactMatch {
			t.Errorf("expected ExactMatch, got %v", out.Kind)
		}
	})
}

func TestOutcomeKindString(t *testing.T) {
	for kind, want := range map[OutcomeKind]string{
		NoMatch:         "no_match",
		ExactMatch:      "exact_match",
		MultipleMatches: "multiple_matches",
	} {
		if kind.String() != want {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
