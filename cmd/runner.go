package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/repositories"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/desertthunder/vibelist/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const spotifyTokenKey = "spotify"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	catalog    services.Catalog
	source     services.RecommendationSource
	drafts     *repositories.DraftRepository
	tokens     *repositories.TokenRepository
	ids        playlist.IDGenerator
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	authOnce sync.Once
	authErr  error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog overrides the catalog view of Spotify. Drafts and Tokens are opened from the configured database on first
// use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Catalog    services.Catalog
	Source     services.RecommendationSource
	Drafts     *repositories.DraftRepository
	Tokens     *repositories.TokenRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		catalog:    opts.Catalog,
		source:     opts.Source,
		drafts:     opts.Drafts,
		tokens:     opts.Tokens,
		ids:        playlist.NewIDGenerator(opts.Config.Reconcile.IDStrategy),
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand,
		newCommand, draftsCommand, recommendCommand, addCommand, searchCommand,
		validateCommand, selectCommand, skipCommand, resetCommand,
		removeCommand, moveCommand, renameCommand, showCommand,
		playlistsCommand, pickCommand, saveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. while a TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database opened by the runner, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// store opens the configured database on first use and runs pending migrations.
func (r *Runner) store() error {
	if r.drafts != nil && r.tokens != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	if r.drafts == nil {
		r.drafts = repositories.NewDraftRepository(db)
	}
	if r.tokens == nil {
		r.tokens = repositories.NewTokenRepository(db)
	}
	return nil
}

// loadSession wraps the active draft in a [tasks.Session]. Without a draft the session starts empty.
func (r *Runner) loadSession() (*tasks.Session, error) {
	if err := r.store(); err != nil {
		return nil, err
	}

	draft, err := r.drafts.Active()
	switch {
	case errors.Is(err, shared.ErrDraftNotFound):
		return tasks.NewSession(playlist.New("")), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return tasks.NewSession(settleStale(draft.Playlist)), nil
}

// settleStale returns entries left Validating by an interrupted run to Unvalidated.
func settleStale(p models.Playlist) models.Playlist {
	for _, e := range playlist.Filter(p, models.Validating) {
		p = playlist.Cancel(p, e.ID)
	}
	return p
}

// saveSession stores the session's current snapshot as the active draft.
func (r *Runner) saveSession(s *tasks.Session) (models.Playlist, error) {
	p := s.Snapshot()
	if _, err := r.drafts.SaveActive(p); err != nil {
		return p, fmt.Errorf("failed to save draft: %w", err)
	}
	return p, nil
}

// edit applies a fallible playlist transformation to the active draft and saves the result.
func (r *Runner) edit(f func(models.Playlist) (models.Playlist, error)) (models.Playlist, error) {
	s, err := r.loadSession()
	if err != nil {
		return models.Playlist{}, err
	}

	var editErr error
	s.Apply(func(p models.Playlist) models.Playlist {
		next, err := f(p)
		if err != nil {
			editErr = err
			return p
		}
		return next
	})
	if editErr != nil {
		return s.Snapshot(), editErr
	}
	return r.saveSession(s)
}

// catalogClient returns the catalog, authenticating the Spotify client on first use.
//
// Tokens come from the token store, then from the configured access token.
func (r *Runner) catalogClient(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	r.authOnce.Do(func() {
		r.authErr = r.authenticate(ctx)
	})
	if r.authErr != nil {
		return nil, r.authErr
	}
	return r.catalog, nil
}

func (r *Runner) authenticate(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or %s/%s",
			shared.ErrMissingCredentials, shared.EnvSpotifyID, shared.EnvSpotifySecret)
	}
	if err := r.store(); err != nil {
		return err
	}

	r.spotify.SetTokenRefreshCallback(r.persistToken)

	token, err := r.tokens.Get(spotifyTokenKey)
	switch {
	case err == nil:
		r.spotify.SetToken(ctx, token)
	case errors.Is(err, shared.ErrNotAuthenticated) && r.config.Credentials.Spotify.AccessToken != "":
		creds := map[string]string{"access_token": r.config.Credentials.Spotify.AccessToken}
		if err := r.spotify.Authenticate(ctx, creds); err != nil {
			return err
		}
	case errors.Is(err, shared.ErrNotAuthenticated):
		return fmt.Errorf("%w: run 'vibelist auth' first", shared.ErrNotAuthenticated)
	default:
		return fmt.Errorf("failed to load token: %w", err)
	}

	r.catalog = r.spotify
	return nil
}

func (r *Runner) persistToken(token *oauth2.Token) {
	if err := r.tokens.Save(spotifyTokenKey, token); err != nil {
		r.logger.Warn("failed to persist refreshed token", "error", err)
		return
	}
	r.logger.Debug("stored refreshed token", "expiry", token.Expiry)
}

func (r *Runner) reconcilerOpts(catalog services.Catalog, progress chan<- tasks.ProgressUpdate) tasks.ReconcilerOpts {
	return tasks.ReconcilerOpts{
		Catalog:     catalog,
		SearchLimit: r.config.Catalog.SearchLimit,
		Concurrency: r.config.Reconcile.Concurrency,
		Logger:      r.logger,
		Progress:    progress,
	}
}

// logProgress logs updates from a progress channel until it is closed. The returned channel closes when draining ends.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return done
}

// explainAuth turns a catalog authorization failure into a hint to log in again.
func (r *Runner) explainAuth(err error) error {
	if services.IsUnauthorized(err) {
		return fmt.Errorf("%w: Spotify rejected the token, run 'vibelist auth' again", err)
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
