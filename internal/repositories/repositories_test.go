package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testPlaylist(name string) models.Playlist {
	return models.Playlist{
		Name: name,
		Entries: []models.TrackEntry{
			{
				ID:         "song-band-1",
				Name:       "Song",
				Artist:     "Band",
				Album:      models.UnknownAlbum,
				SourceID:   "song-band",
				Origin:     models.OriginRecommendation,
				State:      models.Validated,
				Match:      &models.ResolvedMatch{ID: "t1", URI: "spotify:track:t1"},
				Metadata:   &models.RecommendationMetadata{Mood: "happy", Tempo: 120},
				DurationMS: 180000,
			},
			{
				ID:     "other-2",
				Name:   "Other",
				Artist: "Band",
				Origin: models.OriginManual,
				State:  models.NeedsSelection,
				Candidates: []models.CandidateMatch{
					{ID: "c1", Name: "Other (Live)", Artists: []string{"Band"}},
				},
			},
		},
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "drafts")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestDraftRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := &models.Draft{Playlist: testPlaylist("Mix")}

		if err := repo.Create(draft); err != nil {
			t.Fatalf("failed to create draft: %v", err)
		}
		if draft.ID == "" || draft.Sequence != 1 {
			t.Errorf("expected id and sequence to be set, got %q #%d", draft.ID, draft.Sequence)
		}
		if draft.CreatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("Get round trips entries", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := &models.Draft{Playlist: testPlaylist("Mix")}
		if err := repo.Create(draft); err != nil {
			t.Fatalf("failed to create draft: %v", err)
		}

		got, err := repo.Get(draft.ID)
		if err != nil {
			t.Fatalf("failed to get draft: %v", err)
		}
		if got.Playlist.Name != "Mix" || got.Playlist.Len() != 2 {
			t.Fatalf("unexpected playlist: %+v", got.Playlist)
		}

		first, second := got.Playlist.Entries[0], got.Playlist.Entries[1]
		if first.State != models.Validated || first.Match == nil || first.Match.ID != "t1" {
			t.Errorf("validated entry not restored: %+v", first)
		}
		if first.Metadata == nil || first.Metadata.Mood != "happy" {
			t.Errorf("metadata not restored: %+v", first.Metadata)
		}
		if second.State != models.NeedsSelection || len(second.Candidates) != 1 {
			t.Errorf("candidates not restored: %+v", second)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected ErrDraftNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		draft := &models.Draft{Playlist: testPlaylist("Mix")}
		if err := repo.Create(draft); err != nil {
			t.Fatalf("failed to create draft: %v", err)
		}

		draft.Playlist = models.Playlist{Name: "Renamed", Entries: draft.Playlist.Entries[:1]}
		if err := repo.Update(draft); err != nil {
			t.Fatalf("failed to update draft: %v", err)
		}

		got, err := repo.Get(draft.ID)
		if err != nil {
			t.Fatalf("failed to get draft: %v", err)
		}
		if got.Playlist.Name != "Renamed" || got.Playlist.Len() != 1 {
			t.Errorf("update not stored: %+v", got.Playlist)
		}

		if err := repo.Update(&models.Draft{ID: "nonexistent-id"}); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected ErrDraftNotFound, got %v", err)
		}
	})

	t.Run("Active", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))

		if _, err := repo.Active(); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Fatalf("expected no active draft, got %v", err)
		}

		first := &models.Draft{Playlist: testPlaylist("First"), Active: true}
		second := &models.Draft{Playlist: testPlaylist("Second"), Active: true}
		for _, d := range []*models.Draft{first, second} {
			if err := repo.Create(d); err != nil {
				t.Fatalf("failed to create draft: %v", err)
			}
		}

		active, err := repo.Active()
		if err != nil {
			t.Fatalf("failed to get active draft: %v", err)
		}
		if active.ID != second.ID {
			t.Errorf("expected newest draft active, got %q", active.Playlist.Name)
		}

		if err := repo.Activate(first.ID); err != nil {
			t.Fatalf("failed to activate draft: %v", err)
		}
		active, err = repo.Active()
		if err != nil {
			t.Fatalf("failed to get active draft: %v", err)
		}
		if active.ID != first.ID {
			t.Errorf("expected first draft active, got %q", active.Playlist.Name)
		}

		if err := repo.Activate("nonexistent-id"); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected ErrDraftNotFound, got %v", err)
		}
		if active, err := repo.Active(); err != nil || active.ID != first.ID {
			t.Errorf("failed activation should keep the previous draft active, got %v", err)
		}
	})

	t.Run("SaveActive", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))

		created, err := repo.SaveActive(testPlaylist("Mix"))
		if err != nil {
			t.Fatalf("failed to save draft: %v", err)
		}

		updated, err := repo.SaveActive(models.Playlist{Name: "Mix 2"})
		if err != nil {
			t.Fatalf("failed to save draft: %v", err)
		}
		if updated.ID != created.ID {
			t.Errorf("expected active draft to be updated in place")
		}

		drafts, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list drafts: %v", err)
		}
		if len(drafts) != 1 || drafts[0].Playlist.Name != "Mix 2" || drafts[0].Playlist.Entries == nil {
			t.Errorf("unexpected drafts: %+v", drafts)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewDraftRepository(setupTestDB(t))
		keep := &models.Draft{Playlist: testPlaylist("Keep")}
		drop := &models.Draft{Playlist: testPlaylist("Drop"), Active: true}
		for _, d := range []*models.Draft{keep, drop} {
			if err := repo.Create(d); err != nil {
				t.Fatalf("failed to create draft: %v", err)
			}
		}

		if err := repo.Delete(drop.ID); err != nil {
			t.Fatalf("failed to delete draft: %v", err)
		}
		if err := repo.Delete(drop.ID); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
		if _, err := repo.Get(drop.ID); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected deleted draft hidden, got %v", err)
		}
		if _, err := repo.Active(); !errors.Is(err, shared.ErrDraftNotFound) {
			t.Errorf("expected deleted draft to lose active flag, got %v", err)
		}

		drafts, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list drafts: %v", err)
		}
		if len(drafts) != 1 || drafts[0].ID != keep.ID {
			t.Errorf("unexpected drafts: %+v", drafts)
		}
	})
}

func TestTokenRepository(t *testing.T) {
	t.Run("Save and Get", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		err := repo.Save("spotify", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry})
		if err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		got, err := repo.Get("spotify")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "access" || got.RefreshToken != "refresh" || got.TokenType != "Bearer" {
			t.Errorf("unexpected token: %+v", got)
		}
		if !got.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, got.Expiry)
		}
	})

	t.Run("refresh keeps refresh token", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if err := repo.Save("spotify", &oauth2.Token{AccessToken: "old", RefreshToken: "refresh"}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}
		if err := repo.Save("spotify", &oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		got, err := repo.Get("spotify")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "new" || got.RefreshToken != "refresh" {
			t.Errorf("unexpected token: %+v", got)
		}
		if !got.Expiry.IsZero() {
			t.Errorf("expected no expiry, got %v", got.Expiry)
		}
	})

	t.Run("errors", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))

		if _, err := repo.Get("spotify"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := repo.Save("spotify", &oauth2.Token{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := repo.Save("spotify", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTokenRepository(setupTestDB(t))
		if err := repo.Save("spotify", &oauth2.Token{AccessToken: "access"}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}
		if err := repo.Delete("spotify"); err != nil {
			t.Fatalf("failed to delete token: %v", err)
		}
		if err := repo.Delete("spotify"); err != nil {
			t.Errorf("expected deleting missing token to succeed, got %v", err)
		}
		if _, err := repo.Get("spotify"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
