package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/sync/errgroup"
)

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	Catalog     services.Catalog
	SearchLimit int                   // Candidates requested per search (default 10)
	Concurrency int                   // Searches in flight during batch validation (default 1)
	Logger      *log.Logger           // Receives catalog failure details
	Progress    chan<- ProgressUpdate // Optional, never blocks
}

// Summary tallies the outcome of a batch validation.
type Summary struct {
	Total          int
	Validated      int
	NeedsSelection int
	Failed         int
	Cancelled      int
	Unauthorized   bool
}

func (s Summary) String() string {
	parts := []string{
		fmt.Sprintf("%d validated", s.Validated),
		fmt.Sprintf("%d need selection", s.NeedsSelection),
		fmt.Sprintf("%d failed", s.Failed),
	}
	if s.Cancelled > 0 {
		parts = append(parts, fmt.Sprintf("%d cancelled", s.Cancelled))
	}
	return fmt.Sprintf("%d tracks: %s", s.Total, strings.Join(parts, ", "))
}

func (s *Summary) count(e models.TrackEntry) {
	switch e.State {
	case models.Validated:
		s.Validated++
	case models.NeedsSelection:
		s.NeedsSelection++
	case models.Error:
		s.Failed++
	default:
		s.Cancelled++
	}
}

// Reconciler drives entries through search, resolution and the playlist transitions.
//
// A Reconciler is safe for concurrent use. At most one validation per entry id runs at a time; overlapping
// requests for the same id are rejected with [shared.ErrValidationInFlight].
type Reconciler struct {
	catalog     services.Catalog
	search      matcher.SearchOptions
	concurrency int
	logger      *log.Logger
	progress    chan<- ProgressUpdate

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewReconciler creates a Reconciler from opts.
func NewReconciler(opts ReconcilerOpts) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Reconciler{
		catalog:     opts.Catalog,
		search:      matcher.SearchOptions{Limit: opts.SearchLimit},
		concurrency: opts.Concurrency,
		logger:      shared.WithLogger(opts.Logger, "component", "reconciler"),
		progress:    opts.Progress,
		inFlight:    make(map[string]struct{}),
	}
}

// applier swaps the playlist handle: it stores f(current) and returns it.
type applier func(func(models.Playlist) models.Playlist) models.Playlist

func local(p *models.Playlist) applier {
	return func(f func(models.Playlist) models.Playlist) models.Playlist {
		*p = f(*p)
		return *p
	}
}

// ValidateOne validates the entry id of p and returns the updated playlist.
//
// Only Unvalidated entries can be validated. A catalog failure marks the entry Error; when the failure is an
// authorization problem the error is also returned so the caller can re-authenticate.
func (r *Reconciler) ValidateOne(ctx context.Context, p models.Playlist, id string) (models.Playlist, error) {
	err := r.validateOne(ctx, local(&p), p, id)
	return p, err
}

// ValidateAll validates every eligible entry of p in playlist order.
func (r *Reconciler) ValidateAll(ctx context.Context, p models.Playlist) (models.Playlist, Summary, error) {
	summary, err := r.validateAll(ctx, local(&p), p)
	return p, summary, err
}

// ValidateEntry is [Reconciler.ValidateOne] against a live session.
//
// Transitions are applied to whatever the session holds when the search returns, so concurrent edits survive.
func (r *Reconciler) ValidateEntry(ctx context.Context, s *Session, id string) error {
	return r.validateOne(ctx, s.Apply, s.Snapshot(), id)
}

// ValidateSession is [Reconciler.ValidateAll] against a live session.
func (r *Reconciler) ValidateSession(ctx context.Context, s *Session) (Summary, error) {
	return r.validateAll(ctx, s.Apply, s.Snapshot())
}

func (r *Reconciler) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[id]; busy {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Reconciler) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

func (r *Reconciler) validateOne(ctx context.Context, apply applier, p models.Playlist, id string) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	e, ok := playlist.Find(p, id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
	}
	if !r.claim(id) {
		return fmt.Errorf("%w: %s", shared.ErrValidationInFlight, id)
	}
	defer r.release(id)

	var transitionErr error
	apply(func(cur models.Playlist) models.Playlist {
		next, err := playlist.Transition(cur, id, playlist.Event{Kind: playlist.EventValidate})
		transitionErr = err
		return next
	})
	if transitionErr != nil {
		return transitionErr
	}

	sendProgress(r.progress, validatingUpdate(1, 1, e))
	candidates, err := r.catalog.Search(ctx, matcher.ForEntry(e), r.search)
	next, err := r.settle(ctx, apply, e, candidates, err)
	sendProgress(r.progress, appliedUpdate(1, 1, next))
	return err
}

// settle records one search result on entry e and returns the entry as stored.
//
// A cancelled search is abandoned and the entry returns to Unvalidated.
func (r *Reconciler) settle(ctx context.Context, apply applier, e models.TrackEntry, candidates []models.CandidateMatch, err error) (models.TrackEntry, error) {
	var next models.Playlist
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		r.logger.Debug("validation abandoned", "entry", e.ID)
		next = apply(func(cur models.Playlist) models.Playlist { return playlist.Cancel(cur, e.ID) })
		if err == nil {
			err = ctx.Err()
		}

	case err != nil:
		r.logger.Error("catalog search failed", "entry", e.ID, "query", matcher.ForEntry(e), "error", err)
		next = apply(func(cur models.Playlist) models.Playlist {
			return playlist.Fail(cur, e.ID, playlist.MsgValidationFailed)
		})
		if !services.IsUnauthorized(err) {
			err = nil
		}

	default:
		outcome := matcher.ResolveEntry(e, candidates)
		if fc, ok := r.catalog.(services.FeatureCatalog); ok && outcome.Kind == matcher.MultipleMatches {
			outcome.Candidates = fc.WithFeatures(ctx, outcome.Candidates)
		}
		r.logger.Debug("resolved", "entry", e.ID, "outcome", outcome.Kind, "candidates", len(candidates))
		next = apply(func(cur models.Playlist) models.Playlist { return playlist.ApplyOutcome(cur, e.ID, outcome) })
	}

	stored, _ := playlist.Find(next, e.ID)
	return stored, err
}

type searchResult struct {
	candidates []models.CandidateMatch
	err        error
}

func (r *Reconciler) validateAll(ctx context.Context, apply applier, p models.Playlist) (Summary, error) {
	if r.catalog == nil {
		return Summary{}, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	var batch []models.TrackEntry
	for _, e := range playlist.Eligible(p) {
		if r.claim(e.ID) {
			batch = append(batch, e)
		}
	}
	defer func() {
		for _, e := range batch {
			r.release(e.ID)
		}
	}()

	summary := Summary{Total: len(batch)}
	if len(batch) == 0 {
		sendProgress(r.progress, completeUpdate(summary))
		return summary, nil
	}

	r.logger.Info("validating", "entries", len(batch), "concurrency", r.concurrency)

	var err error
	if r.concurrency > 1 {
		err = r.prefetch(ctx, apply, batch, &summary)
	} else {
		err = r.sequential(ctx, apply, batch, &summary)
	}

	r.logger.Info("validation finished", "summary", summary.String())
	sendProgress(r.progress, completeUpdate(summary))
	return summary, err
}

// sequential searches one entry at a time, stopping at cancellation or the first authorization failure.
func (r *Reconciler) sequential(ctx context.Context, apply applier, batch []models.TrackEntry, summary *Summary) error {
	total := len(batch)
	for i, e := range batch {
		if ctx.Err() != nil {
			summary.Cancelled += total - i
			return ctx.Err()
		}

		if !r.markValidating(apply, e.ID) {
			summary.Total--
			continue
		}

		sendProgress(r.progress, validatingUpdate(i+1, total, e))
		candidates, err := r.catalog.Search(ctx, matcher.ForEntry(e), r.search)
		stored, err := r.settle(ctx, apply, e, candidates, err)
		summary.count(stored)
		sendProgress(r.progress, appliedUpdate(i+1, total, stored))

		if err != nil {
			summary.Unauthorized = services.IsUnauthorized(err)
			summary.Cancelled += total - i - 1
			return err
		}
	}
	return nil
}

// prefetch runs up to r.concurrency searches at once but applies results strictly in batch order.
func (r *Reconciler) prefetch(ctx context.Context, apply applier, batch []models.TrackEntry, summary *Summary) error {
	var started []models.TrackEntry
	for _, e := range batch {
		if r.markValidating(apply, e.ID) {
			started = append(started, e)
		}
	}
	total := len(started)
	summary.Total = total

	results := make([]searchResult, len(started))
	done := make([]chan struct{}, len(started))
	for i := range done {
		done[i] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	go func() {
		for i, e := range started {
			g.Go(func() error {
				defer close(done[i])
				if err := gctx.Err(); err != nil {
					results[i] = searchResult{err: err}
					return nil
				}
				sendProgress(r.progress, validatingUpdate(i+1, total, e))
				cands, err := r.catalog.Search(gctx, matcher.ForEntry(e), r.search)
				results[i] = searchResult{candidates: cands, err: err}
				if services.IsUnauthorized(err) {
					return err
				}
				return nil
			})
		}
	}()

	var firstErr error
	for i, e := range started {
		<-done[i]
		res := results[i]

		// Searches cancelled by the group after an authorization failure elsewhere in the batch.
		if ctx.Err() == nil && errors.Is(res.err, context.Canceled) {
			apply(func(cur models.Playlist) models.Playlist { return playlist.Cancel(cur, e.ID) })
			summary.Cancelled++
			continue
		}

		stored, err := r.settle(ctx, apply, e, res.candidates, res.err)
		summary.count(stored)
		sendProgress(r.progress, appliedUpdate(i+1, total, stored))

		if err != nil && firstErr == nil {
			firstErr = err
			if services.IsUnauthorized(err) {
				summary.Unauthorized = true
			}
		}
	}

	_ = g.Wait()
	return firstErr
}

func (r *Reconciler) markValidating(apply applier, id string) bool {
	ok := false
	apply(func(cur models.Playlist) models.Playlist {
		next, err := playlist.Transition(cur, id, playlist.Event{Kind: playlist.EventValidate})
		ok = err == nil
		return next
	})
	return ok
}
