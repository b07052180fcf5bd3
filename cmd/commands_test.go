package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	tu "github.com/desertthunder/vibelist/internal/testing"
)

func ambiguousDraft() models.Playlist {
	return models.Playlist{
		Name: "Run Club",
		Entries: []models.TrackEntry{
			{
				ID: "vague-band-1", Name: "Vague", Artist: "Band", Album: models.UnknownAlbum,
				State: models.NeedsSelection,
				Candidates: []models.CandidateMatch{
					tu.Candidate("c1", "Vague (Live)", "Band"),
					tu.Candidate("c2", "Vague", "Tribute"),
				},
			},
			{ID: "fresh-band-2", Name: "Fresh", Artist: "Band", Album: models.UnknownAlbum},
		},
	}
}

func TestDraftCommands(t *testing.T) {
	t.Run("add starts a draft", func(t *testing.T) {
		h := newHarness(t)

		out := h.mustRun(t, "add", "--album", "First", "--duration", "185", "Song One", "Band")
		if !strings.Contains(out, "Added Band - Song One (song-one-band-1)") {
			t.Errorf("unexpected output %q", out)
		}

		e := entry(t, h.draft(t), "song-one-band-1")
		if e.Album != "First" || e.DurationMS != 185000 || e.Origin != models.OriginManual || e.State != models.Unvalidated {
			t.Errorf("unexpected entry %+v", e)
		}
	})

	t.Run("add requires a title", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run(t, "add"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("new draft replaces active", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		h.mustRun(t, "new", "Sunday")
		if p := h.draft(t); p.Name != "Sunday" || p.Len() != 0 {
			t.Errorf("expected empty Sunday draft, got %q with %d entries", p.Name, p.Len())
		}
	})

	t.Run("rename move remove", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		h.mustRun(t, "rename", "Tempo Run")
		h.mustRun(t, "move", "fresh-band-2", "1")
		p := h.draft(t)
		if p.Name != "Tempo Run" || p.Entries[0].ID != "fresh-band-2" {
			t.Fatalf("unexpected draft %q %v", p.Name, playlist.IDs(p))
		}

		h.mustRun(t, "remove", "fresh-band-2")
		if ids := playlist.IDs(h.draft(t)); len(ids) != 1 || ids[0] != "vague-band-1" {
			t.Errorf("unexpected ids after remove %v", ids)
		}

		if _, err := h.run(t, "remove", "missing"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
		if _, err := h.run(t, "move", "vague-band-1", "zero"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("select by position", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		out := h.mustRun(t, "select", "vague-band-1", "2")
		if !strings.Contains(out, "matched to c2") {
			t.Errorf("unexpected output %q", out)
		}
		e := entry(t, h.draft(t), "vague-band-1")
		if e.State != models.Validated || e.Match.ID != "c2" || len(e.Candidates) != 0 {
			t.Errorf("unexpected entry %+v", e)
		}
	})

	t.Run("select by candidate id", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		h.mustRun(t, "select", "vague-band-1", "c1")
		if e := entry(t, h.draft(t), "vague-band-1"); e.Match == nil || e.Match.ID != "c1" {
			t.Errorf("expected c1, got %+v", e.Match)
		}
	})

	t.Run("select rejects bad input", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		if _, err := h.run(t, "select", "vague-band-1", "c9"); !errors.Is(err, shared.ErrCandidateNotFound) {
			t.Errorf("expected ErrCandidateNotFound, got %v", err)
		}
		if _, err := h.run(t, "select", "fresh-band-2", "1"); !errors.Is(err, shared.ErrIllegalTransition) {
			t.Errorf("expected ErrIllegalTransition, got %v", err)
		}
		if e := entry(t, h.draft(t), "vague-band-1"); e.State != models.NeedsSelection {
			t.Errorf("expected draft unchanged, got %v", e.State)
		}
	})

	t.Run("skip then reset", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		h.mustRun(t, "skip", "vague-band-1")
		e := entry(t, h.draft(t), "vague-band-1")
		if e.State != models.Error || e.Error != playlist.MsgNoMatchSelected {
			t.Fatalf("expected skipped entry, got %+v", e)
		}

		h.mustRun(t, "reset", "vague-band-1")
		if e := entry(t, h.draft(t), "vague-band-1"); e.State != models.Unvalidated || e.Error != "" {
			t.Errorf("expected reset entry, got %+v", e)
		}

		if _, err := h.run(t, "reset", "fresh-band-2"); !errors.Is(err, shared.ErrIllegalTransition) {
			t.Errorf("expected ErrIllegalTransition, got %v", err)
		}
	})
}

func TestShow(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		out := h.mustRun(t, "show")
		for _, want := range []string{"Playlist: Run Club", "[??] Band - Vague  (vague-band-1)  2 candidates", "[  ] Band - Fresh"} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q in:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		out := h.mustRun(t, "show", "--format", "json")
		if !strings.Contains(out, `"state": "needs_selection"`) {
			t.Errorf("expected JSON states, got:\n%s", out)
		}
	})

	t.Run("entry detail", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		out := h.mustRun(t, "show", "--id", "vague-band-1")
		for _, want := range []string{"State: [??] needs_selection", "★ 1. Band - Vague (Live)", "2. Tribute - Vague", "vibelist select vague-band-1"} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q in:\n%s", want, out)
			}
		}
	})

	t.Run("export to file", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())
		path := filepath.Join(t.TempDir(), "run.csv")

		out := h.mustRun(t, "show", "--format", "csv", "--output", path)
		if !strings.Contains(out, "Wrote 2 tracks to "+path) {
			t.Errorf("unexpected output %q", out)
		}
		if content := tu.MustReadFile(t, path); !strings.HasPrefix(content, "Position,ID") {
			t.Errorf("unexpected file content %q", content)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run(t, "show", "--format", "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRecommendCommand(t *testing.T) {
	t.Run("appends recommendations", func(t *testing.T) {
		h := newHarness(t)
		h.source.Records = []models.RecommendationRecord{
			{Title: "Fresh", Artist: "Band", Tempo: 128},
			{Title: "Vague", Artist: "Band"},
		}

		out := h.mustRun(t, "recommend", "--bpm", "128", "--mood", "happy", "--genre", "house")
		if !strings.Contains(out, "Added 2 recommendations") {
			t.Errorf("unexpected output %q", out)
		}

		prefs := h.source.Prefs[0]
		if prefs.TargetBPM != 128 || prefs.Mood != "happy" || prefs.GenrePreference != "house" || !prefs.AllowVocals {
			t.Errorf("unexpected preferences %+v", prefs)
		}

		p := h.draft(t)
		if p.Len() != 2 || p.Entries[0].Origin != models.OriginRecommendation || p.Entries[0].Metadata.Tempo != 128 {
			t.Errorf("unexpected draft %+v", p.Entries)
		}
	})

	t.Run("validates when asked", func(t *testing.T) {
		h := newHarness(t)
		h.source.Records = []models.RecommendationRecord{{Title: "Fresh", Artist: "Band"}}
		h.catalog.On("Fresh Band", tu.Candidate("f1", "Fresh", "Band"))

		out := h.mustRun(t, "recommend", "--validate")
		if !strings.Contains(out, "1 tracks: 1 validated") {
			t.Errorf("expected validation summary, got:\n%s", out)
		}
		if e := h.draft(t).Entries[0]; e.State != models.Validated || e.Match.ID != "f1" {
			t.Errorf("unexpected entry %+v", e)
		}
	})

	t.Run("source failure leaves draft alone", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())
		h.source.Err = shared.ErrRateLimited

		if _, err := h.run(t, "recommend"); !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if h.draft(t).Len() != 2 {
			t.Error("expected draft unchanged")
		}
	})

	t.Run("no source", func(t *testing.T) {
		h := newHarness(t)
		h.runner.source = nil
		if _, err := h.run(t, "recommend"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestValidateCommand(t *testing.T) {
	t.Run("all eligible entries", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())
		h.catalog.On("Fresh Band", tu.Candidate("f1", "Fresh", "Band"))

		out := h.mustRun(t, "validate")
		if !strings.Contains(out, "1 tracks: 1 validated, 0 need selection, 0 failed") {
			t.Errorf("unexpected summary:\n%s", out)
		}
		if calls := h.catalog.Calls(); len(calls) != 1 || calls[0] != "Fresh Band" {
			t.Errorf("expected only the unvalidated entry searched, got %v", calls)
		}

		p := h.draft(t)
		if e := entry(t, p, "fresh-band-2"); e.State != models.Validated {
			t.Errorf("expected fresh validated, got %v", e.State)
		}
		if e := entry(t, p, "vague-band-1"); e.State != models.NeedsSelection {
			t.Errorf("expected vague untouched, got %v", e.State)
		}
	})

	t.Run("single entry resets first", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())
		h.catalog.On("Vague Band", tu.Candidate("v1", "Vague", "Band"))

		out := h.mustRun(t, "validate", "--id", "vague-band-1")
		if !strings.Contains(out, "matched to v1") {
			t.Errorf("unexpected output %q", out)
		}
		if e := entry(t, h.draft(t), "vague-band-1"); e.State != models.Validated || e.Match.ID != "v1" {
			t.Errorf("unexpected entry %+v", e)
		}
	})

	t.Run("single entry without matches", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		out := h.mustRun(t, "validate", "--id", "fresh-band-2")
		if !strings.Contains(out, playlist.MsgNoMatches) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("unauthorized keeps progress", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())
		h.catalog.Fail("Fresh Band", &services.CatalogError{Kind: services.Unauthorized, Status: 401, Err: shared.ErrTokenExpired})

		out, err := h.run(t, "validate")
		if !services.IsUnauthorized(err) || !strings.Contains(err.Error(), "vibelist auth") {
			t.Fatalf("expected unauthorized with hint, got %v", err)
		}
		if !strings.Contains(out, "Validation complete") {
			t.Errorf("expected summary before error, got %q", out)
		}
		if e := entry(t, h.draft(t), "fresh-band-2"); e.State != models.Error {
			t.Errorf("expected failed entry saved, got %v", e.State)
		}
	})

	t.Run("conflicting flags", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run(t, "validate", "--all", "--id", "x"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.run(t, "validate", "--id", "nope"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	t.Run("search prints results", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.On("daft punk", tu.Candidate("d1", "One More Time", "Daft Punk"))

		out := h.mustRun(t, "search", "--limit", "5", "--genre", "house", "daft punk")
		if !strings.Contains(out, "1. Daft Punk - One More Time") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if opts := h.catalog.Options(); opts[0].Limit != 5 || opts[0].Genre != "house" {
			t.Errorf("unexpected search options %+v", opts[0])
		}
	})

	t.Run("search add appends validated entry", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.On("daft punk", tu.Candidate("d1", "One More Time", "Daft Punk"))

		h.mustRun(t, "search", "--add", "1", "daft punk")
		p := h.draft(t)
		if p.Len() != 1 || p.Entries[0].State != models.Validated || p.Entries[0].Origin != models.OriginSearch {
			t.Errorf("unexpected draft %+v", p.Entries)
		}

		if _, err := h.run(t, "search", "--add", "3", "daft punk"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.Playlists = []models.PlaylistSummary{
			{ID: "p1", Name: "Focus", TrackCount: 12, Owner: "me"},
			{ID: "p2", Name: "Party", TrackCount: 40, Public: true},
		}

		out := h.mustRun(t, "playlists", "--limit", "1")
		if !strings.Contains(out, "Found 1 playlists") || !strings.Contains(out, "Visibility: private") || strings.Contains(out, "Party") {
			t.Errorf("unexpected output:\n%s", out)
		}

		out = h.mustRun(t, "playlists", "--json")
		if !strings.Contains(out, `"name":"Party"`) {
			t.Errorf("expected JSON output, got %s", out)
		}
	})

	t.Run("save needs validated tracks", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, ambiguousDraft())

		if _, err := h.run(t, "save"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		h.mustRun(t, "select", "vague-band-1", "1")
		if _, err := h.run(t, "save"); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "vibelist.db")
	configPath := filepath.Join(dir, "config.toml")

	h := newHarness(t)
	r := NewRunner(RunnerOpts{Config: config, Output: h.output, Logger: h.runner.logger})
	defer r.Close()
	h.runner = r

	out := h.mustRun(t, "setup", "--config", configPath)
	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, config.Database.Path)
	if !strings.Contains(out, "Created "+configPath) || !strings.Contains(out, "schema version 2") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

type trackCatalog struct {
	*tu.MockCatalog
}

func (c trackCatalog) Track(ctx context.Context, trackID string) (*models.CandidateMatch, error) {
	if trackID != "t1" {
		return nil, &services.CatalogError{Kind: services.UpstreamFailure, Status: 404, Err: shared.ErrAPIRequest}
	}
	hit := tu.Candidate("t1", "Around the World", "Daft Punk")
	return &hit, nil
}

func TestAddTrack(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run(t, "add", "--track", "t1"); !errors.Is(err, shared.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented without track lookup, got %v", err)
	}

	h.runner.catalog = trackCatalog{h.catalog}
	out := h.mustRun(t, "add", "--track", "t1")
	if !strings.Contains(out, "Added Daft Punk - Around the World") {
		t.Errorf("unexpected output %q", out)
	}

	e := h.draft(t).Entries[0]
	if e.State != models.Validated || e.Origin != models.OriginCatalog || e.Match.ID != "t1" {
		t.Errorf("unexpected entry %+v", e)
	}

	if _, err := h.run(t, "add", "--track", "missing"); err == nil {
		t.Error("expected lookup error")
	}
}

func TestDraftsCommand(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun(t, "drafts"); !strings.Contains(out, "No drafts yet") {
		t.Errorf("unexpected output %q", out)
	}

	h.mustRun(t, "new", "Morning")
	h.mustRun(t, "add", "Song", "Band")
	h.mustRun(t, "new", "Evening")

	out := h.mustRun(t, "drafts")
	if !strings.Contains(out, "  #1 Morning  1 tracks") || !strings.Contains(out, "* #2 Evening  0 tracks") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	h.mustRun(t, "drafts", "use", "1")
	if p := h.draft(t); p.Name != "Morning" || p.Len() != 1 {
		t.Errorf("expected Morning active, got %q", p.Name)
	}

	h.mustRun(t, "drafts", "delete", "#2")
	if _, err := h.run(t, "drafts", "use", "2"); !errors.Is(err, shared.ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
	if _, err := h.run(t, "drafts", "use", "two"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
