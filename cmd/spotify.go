package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the catalog and optionally appends one hit to the draft as a validated entry.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	catalog, err := r.catalogClient(ctx)
	if err != nil {
		return err
	}

	opts := matcher.SearchOptions{
		Limit:    cmd.Int("limit"),
		Genre:    cmd.String("genre"),
		YearFrom: cmd.Int("year-from"),
		YearTo:   cmd.Int("year-to"),
	}
	r.logger.Debug("searching catalog", "query", opts.Qualify(query), "limit", opts.ClampedLimit())

	results, err := catalog.Search(ctx, query, opts)
	if err != nil {
		return r.explainAuth(fmt.Errorf("search failed: %w", err))
	}

	if n := cmd.Int("add"); n != 0 {
		if n < 1 || n > len(results) {
			return fmt.Errorf("%w: --add %d is outside 1..%d", shared.ErrInvalidArgument, n, len(results))
		}
		var added models.TrackEntry
		if _, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
			next, e := playlist.AppendEntry(p, playlist.FromCandidate(results[n-1], models.OriginSearch), r.ids)
			added = e
			return next, nil
		}); err != nil {
			return err
		}
		return r.writePlain("✓ Added %s - %s (%s)\n", added.Artist, added.Name, added.ID)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	r.writePlain("Found %d tracks:\n\n", len(results))
	for i, c := range results {
		r.writePlain("%d. %s - %s\n", i+1, strings.Join(c.Artists, ", "), c.Name)
		r.writePlain("   Album: %s  [%s]\n", c.Album, shared.FormatDuration(c.DurationMS))
		r.writePlain("   ID: %s\n", c.ID)
	}
	return nil
}

// Playlists lists the authenticated user's Spotify playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.catalogClient(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("listing spotify playlists")

	playlists, err := catalog.ListPlaylists(ctx)
	if err != nil {
		return r.explainAuth(fmt.Errorf("%w: %w", shared.ErrAPIRequest, err))
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Owner != "" {
			r.writePlain("   Owner: %s\n", p.Owner)
		}
		r.writePlain("   Visibility: %s\n\n", shared.VisibilityString(p.Public))
	}
	return nil
}

type playlistSaver interface {
	SavePlaylist(ctx context.Context, p models.Playlist, public bool) (*models.PlaylistSummary, error)
}

// SavePlaylist creates the draft on Spotify when the catalog supports it.
func (r *Runner) SavePlaylist(ctx context.Context, cmd *cli.Command) error {
	s, err := r.loadSession()
	if err != nil {
		return err
	}
	p := s.Snapshot()
	if counts := p.Counts(); counts[models.Validated] == 0 {
		return fmt.Errorf("%w: no validated tracks to save", shared.ErrInvalidInput)
	}

	catalog, err := r.catalogClient(ctx)
	if err != nil {
		return err
	}
	saver, ok := catalog.(playlistSaver)
	if !ok {
		return fmt.Errorf("saving playlists: %w", shared.ErrNotImplemented)
	}

	summary, err := saver.SavePlaylist(ctx, p, cmd.Bool("public"))
	if err != nil {
		return r.explainAuth(err)
	}
	return r.writePlain("✓ Saved %s (%d tracks) as %s\n", summary.Name, summary.TrackCount, summary.ID)
}

var _ playlistSaver = (*services.SpotifyService)(nil)
var _ trackLookup = (*services.SpotifyService)(nil)
