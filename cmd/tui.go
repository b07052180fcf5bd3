package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/desertthunder/vibelist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Pick opens the candidate picker over the draft and saves the choices made.
//
// Validation from inside the picker is offered when the catalog is reachable.
func (r *Runner) Pick(ctx context.Context, cmd *cli.Command) error {
	s, err := r.loadSession()
	if err != nil {
		return err
	}
	p := s.Snapshot()
	if len(playlist.Filter(p, models.NeedsSelection)) == 0 && len(playlist.Eligible(p)) == 0 {
		return r.writePlain("Nothing to pick: %d of %d tracks validated\n", p.Counts()[models.Validated], p.Len())
	}

	// Logs go to a file while the picker owns the terminal.
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer logFile.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	previous := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(previous)

	var catalog services.Catalog
	if c, err := r.catalogClient(ctx); err == nil {
		catalog = c
	} else {
		fileLogger.Warn("validation unavailable in picker", "error", err)
	}

	model := ui.NewModel(ctx, s, r.reconcilerOpts(catalog, nil))
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running picker: %w", err)
	}

	final, err := r.saveSession(s)
	if err != nil {
		return err
	}

	counts := final.Counts()
	return r.writePlain("✓ Saved draft: %d validated, %d need selection, %d without a match\n",
		counts[models.Validated], counts[models.NeedsSelection], counts[models.Error])
}
