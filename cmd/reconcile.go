package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/desertthunder/vibelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Recommend asks the recommendation source for tracks and appends them to the draft as Unvalidated entries.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil {
		return fmt.Errorf("%w: set credentials.recommender.api_key or %s", shared.ErrMissingCredentials, shared.EnvMockRecommender)
	}

	prefs := models.Preferences{
		TargetBPM:       cmd.Int("bpm"),
		Mood:            cmd.String("mood"),
		AllowVocals:     cmd.Bool("vocals"),
		EnergyRange:     cmd.String("energy"),
		GenrePreference: cmd.String("genre"),
		SeedTrack:       cmd.String("seed-track"),
		SeedArtist:      cmd.String("seed-artist"),
		SeedAlbum:       cmd.String("seed-album"),
	}

	s, err := r.loadSession()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := r.logProgress(progress)
	added, err := tasks.Recommend(ctx, r.source, prefs, s, r.ids, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if _, err := r.saveSession(s); err != nil {
		return err
	}

	r.writePlain("✓ Added %d recommendations\n\n", len(added))
	for i, e := range added {
		r.writePlain("%d. %s - %s  (%s)\n", i+1, e.Artist, e.Name, e.ID)
	}

	if !cmd.Bool("validate") || len(added) == 0 {
		return nil
	}

	r.writePlain("\n")
	return r.validateSession(ctx, s, r.config.Reconcile.Concurrency)
}

// Validate matches the draft against the catalog: one entry with --id, otherwise every eligible entry.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	if id != "" && cmd.Bool("all") {
		return fmt.Errorf("%w: cannot specify both --id and --all", shared.ErrInvalidArgument)
	}

	s, err := r.loadSession()
	if err != nil {
		return err
	}

	concurrency := r.config.Reconcile.Concurrency
	if n := cmd.Int("concurrency"); n > 0 {
		concurrency = n
	}

	if id == "" {
		return r.validateSession(ctx, s, concurrency)
	}

	e, ok := playlist.Find(s.Snapshot(), id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
	}
	if e.State != models.Unvalidated {
		s.Apply(func(p models.Playlist) models.Playlist { return playlist.Reset(p, id) })
	}

	rec, err := r.newReconciler(ctx, concurrency, nil)
	if err != nil {
		return err
	}

	validateErr := rec.ValidateEntry(ctx, s, id)
	p, saveErr := r.saveSession(s)
	if err := errors.Join(validateErr, saveErr); err != nil {
		return r.explainAuth(err)
	}

	e, _ = playlist.Find(p, id)
	switch e.State {
	case models.Validated:
		return r.writePlain("✓ %s - %s matched to %s\n", e.Artist, e.Name, e.Match.ID)
	case models.NeedsSelection:
		r.writePlain("? %s - %s has %d candidates\n", e.Artist, e.Name, len(e.Candidates))
		return r.writePlain("  Run 'vibelist show --id %s' or 'vibelist pick' to choose\n", e.ID)
	default:
		return r.writePlain("✗ %s - %s: %s\n", e.Artist, e.Name, e.Error)
	}
}

func (r *Runner) validateSession(ctx context.Context, s *tasks.Session, concurrency int) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)

	rec, err := r.newReconciler(ctx, concurrency, progress)
	if err != nil {
		close(progress)
		<-done
		return err
	}

	summary, validateErr := rec.ValidateSession(ctx, s)
	close(progress)
	<-done

	if _, err := r.saveSession(s); err != nil {
		return errors.Join(validateErr, err)
	}

	r.writePlainHeader("Validation complete")
	r.writePlain("%s\n", summary)
	if summary.NeedsSelection > 0 {
		r.writePlain("\nRun 'vibelist pick' to choose matches for %d tracks\n", summary.NeedsSelection)
	}
	if validateErr != nil {
		return r.explainAuth(validateErr)
	}
	return nil
}

func (r *Runner) newReconciler(ctx context.Context, concurrency int, progress chan<- tasks.ProgressUpdate) (*tasks.Reconciler, error) {
	catalog, err := r.catalogClient(ctx)
	if err != nil {
		return nil, err
	}
	opts := r.reconcilerOpts(catalog, progress)
	opts.Concurrency = concurrency
	return tasks.NewReconciler(opts), nil
}
