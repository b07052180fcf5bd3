package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/vibelist/internal/formatter"
	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// NewDraft starts a new active draft. The previous draft is kept but no longer active.
func (r *Runner) NewDraft(ctx context.Context, cmd *cli.Command) error {
	if err := r.store(); err != nil {
		return err
	}

	draft := &models.Draft{Playlist: playlist.New(cmd.StringArg("name")), Active: true}
	if err := r.drafts.Create(draft); err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	r.logger.Debug("created draft", "id", draft.ID, "sequence", draft.Sequence)
	return r.writePlain("✓ Started draft #%d %s\n", draft.Sequence, displayName(draft.Playlist))
}

type trackLookup interface {
	Track(ctx context.Context, trackID string) (*models.CandidateMatch, error)
}

// Add appends a manually entered track, or a catalog track by id with --track.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	var entry models.TrackEntry
	if trackID := cmd.String("track"); trackID != "" {
		c, err := r.lookupTrack(ctx, trackID)
		if err != nil {
			return err
		}
		entry = playlist.FromCandidate(*c, models.OriginCatalog)
	} else {
		title, err := requireArg(cmd, "title")
		if err != nil {
			return err
		}
		entry = playlist.FromManual(title, cmd.StringArg("artist"), cmd.String("album"), cmd.Int("duration")*1000)
	}

	var added models.TrackEntry
	if _, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		next, e := playlist.AppendEntry(p, entry, r.ids)
		added = e
		return next, nil
	}); err != nil {
		return err
	}

	return r.writePlain("✓ Added %s - %s (%s)\n", added.Artist, added.Name, added.ID)
}

func (r *Runner) lookupTrack(ctx context.Context, trackID string) (*models.CandidateMatch, error) {
	catalog, err := r.catalogClient(ctx)
	if err != nil {
		return nil, err
	}
	lookup, ok := catalog.(trackLookup)
	if !ok {
		return nil, fmt.Errorf("track lookup: %w", shared.ErrNotImplemented)
	}
	c, err := lookup.Track(ctx, trackID)
	if err != nil {
		return nil, r.explainAuth(fmt.Errorf("failed to fetch track %s: %w", trackID, err))
	}
	return c, nil
}

// Select resolves a NeedsSelection entry to a candidate given by id or 1-based position.
func (r *Runner) Select(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	choice, err := requireArg(cmd, "candidate")
	if err != nil {
		return err
	}

	p, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		candidateID := choice
		if e, ok := playlist.Find(p, id); ok {
			if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(e.Candidates) {
				candidateID = e.Candidates[n-1].ID
			}
		}
		return playlist.Transition(p, id, playlist.Event{Kind: playlist.EventSelect, CandidateID: candidateID})
	})
	if err != nil {
		return r.explainTransition(err, id)
	}

	e, _ := playlist.Find(p, id)
	return r.writePlain("✓ %s - %s matched to %s\n", e.Artist, e.Name, e.Match.ID)
}

// Skip declines every candidate of a NeedsSelection entry.
func (r *Runner) Skip(ctx context.Context, cmd *cli.Command) error {
	return r.transition(cmd, playlist.EventSkip, "skipped")
}

// Reset returns a settled entry to Unvalidated.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	return r.transition(cmd, playlist.EventReset, "reset")
}

func (r *Runner) transition(cmd *cli.Command, kind playlist.EventKind, verb string) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	p, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		return playlist.Transition(p, id, playlist.Event{Kind: kind})
	})
	if err != nil {
		return r.explainTransition(err, id)
	}

	e, _ := playlist.Find(p, id)
	return r.writePlain("✓ %s - %s %s (%s)\n", e.Artist, e.Name, verb, e.State)
}

func (r *Runner) explainTransition(err error, id string) error {
	if errors.Is(err, shared.ErrIllegalTransition) || errors.Is(err, shared.ErrCandidateNotFound) {
		return fmt.Errorf("%w; run 'vibelist show --id %s' to inspect the entry", err, id)
	}
	return err
}

// Remove drops an entry from the draft.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	var removed models.TrackEntry
	if _, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		e, ok := playlist.Find(p, id)
		if !ok {
			return p, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
		}
		removed = e
		return playlist.Remove(p, id), nil
	}); err != nil {
		return err
	}

	return r.writePlain("✓ Removed %s - %s\n", removed.Artist, removed.Name)
}

// Move places an entry at a 1-based position.
func (r *Runner) Move(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	raw, err := requireArg(cmd, "position")
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(raw)
	if err != nil || pos < 1 {
		return fmt.Errorf("%w: position must be a positive number, got %q", shared.ErrInvalidArgument, raw)
	}

	p, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		if playlist.Index(p, id) < 0 {
			return p, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
		}
		return playlist.Move(p, id, pos-1), nil
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Moved %s to position %d\n", id, playlist.Index(p, id)+1)
}

// Rename sets the draft playlist name.
func (r *Runner) Rename(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	if _, err := r.edit(func(p models.Playlist) (models.Playlist, error) {
		return playlist.Rename(p, name), nil
	}); err != nil {
		return err
	}
	return r.writePlain("✓ Renamed draft to %s\n", name)
}

// Show prints the draft in the requested format, writes it to a file, or details one entry.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	s, err := r.loadSession()
	if err != nil {
		return err
	}
	p := s.Snapshot()

	if id := cmd.String("id"); id != "" {
		e, ok := playlist.Find(p, id)
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
		}
		return r.showEntry(e)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		written, err := formatter.WriteExport(p, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("exported draft", "path", written, "format", format)
		return r.writePlain("✓ Wrote %d tracks to %s\n", p.Len(), written)
	}

	data, err := formatter.Render(p, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) showEntry(e models.TrackEntry) error {
	r.writePlainHeader(fmt.Sprintf("%s - %s", e.Artist, e.Name))
	r.writePlain("ID: %s\n", e.ID)
	r.writePlain("State: %s %s\n", formatter.Marker(e.State), e.State)
	r.writePlain("Album: %s\n", e.Album)
	r.writePlain("Duration: %s\n", shared.FormatDuration(e.DurationMS))
	r.writePlain("Origin: %s\n", e.Origin)
	if e.Metadata != nil && e.Metadata.Notes != "" {
		r.writePlain("Notes: %s\n", e.Metadata.Notes)
	}
	if e.Match != nil {
		r.writePlain("Match: %s (%s)\n", e.Match.ID, e.Match.ExternalURL)
	}
	if e.Error != "" {
		r.writePlain("Error: %s\n", e.Error)
	}

	if len(e.Candidates) == 0 {
		return nil
	}

	best := matcher.BestHint(e.Name, e.Artist, e.Candidates)
	r.writePlainln("Candidates:")
	for i, c := range e.Candidates {
		marker := " "
		if i == best {
			marker = "★"
		}
		score := matcher.Similarity(e.Name, e.Artist, c)
		r.writePlain("%s %d. %s - %s  [%s]  %.0f%% match  (%s)\n",
			marker, i+1, strings.Join(c.Artists, ", "), c.Name, shared.FormatDuration(c.DurationMS), score*100, c.ID)
	}
	r.writePlain("\nChoose with: vibelist select %s <number>\n", e.ID)
	return nil
}

func displayName(p models.Playlist) string {
	if p.Name == "" {
		return "(untitled)"
	}
	return p.Name
}

// Drafts lists the stored drafts, marking the active one.
func (r *Runner) Drafts(ctx context.Context, cmd *cli.Command) error {
	if err := r.store(); err != nil {
		return err
	}

	drafts, err := r.drafts.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(drafts, cmd.Bool("pretty"))
	}

	if len(drafts) == 0 {
		return r.writePlain("No drafts yet. Start one with 'vibelist new <name>'\n")
	}

	for _, d := range drafts {
		marker := " "
		if d.Active {
			marker = "*"
		}
		r.writePlain("%s #%d %s  %d tracks  updated %s\n",
			marker, d.Sequence, displayName(d.Playlist), d.Playlist.Len(), d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// UseDraft makes the draft with the given sequence number active.
func (r *Runner) UseDraft(ctx context.Context, cmd *cli.Command) error {
	d, err := r.findDraft(cmd)
	if err != nil {
		return err
	}
	if err := r.drafts.Activate(d.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Switched to draft #%d %s\n", d.Sequence, displayName(d.Playlist))
}

// DeleteDraft removes the draft with the given sequence number.
func (r *Runner) DeleteDraft(ctx context.Context, cmd *cli.Command) error {
	d, err := r.findDraft(cmd)
	if err != nil {
		return err
	}
	if err := r.drafts.Delete(d.ID); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted draft #%d %s\n", d.Sequence, displayName(d.Playlist))
}

func (r *Runner) findDraft(cmd *cli.Command) (*models.Draft, error) {
	raw, err := requireArg(cmd, "number")
	if err != nil {
		return nil, err
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil {
		return nil, fmt.Errorf("%w: draft number must be numeric, got %q", shared.ErrInvalidArgument, raw)
	}

	if err := r.store(); err != nil {
		return nil, err
	}
	drafts, err := r.drafts.List()
	if err != nil {
		return nil, err
	}
	for _, d := range drafts {
		if d.Sequence == seq {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: #%d", shared.ErrDraftNotFound, seq)
}
