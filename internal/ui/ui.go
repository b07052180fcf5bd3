package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ReviewView ViewState = iota
	CandidateView
	ValidateView
	DoneView
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	session       *tasks.Session
	reconciler    *tasks.Reconciler
	width         int
	height        int
	entryList     list.Model
	candidateList list.Model
	current       models.TrackEntry
	progressChan  chan tasks.ProgressUpdate
	done          chan validationResult
	progress      tasks.ProgressUpdate
	summary       *tasks.Summary
	resolved      int
	skipped       int
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model over session.
//
// When opts has a catalog, v validates every eligible entry through a reconciler whose progress feeds the model.
func NewModel(ctx context.Context, session *tasks.Session, opts tasks.ReconcilerOpts) *Model {
	m := &Model{
		ctx:     ctx,
		session: session,
		width:   defaultWidth,
		height:  defaultHeight,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	if opts.Catalog != nil {
		m.progressChan = make(chan tasks.ProgressUpdate, 50)
		m.done = make(chan validationResult, 1)
		opts.Progress = m.progressChan
		m.reconciler = tasks.NewReconciler(opts)
	}

	m.entryList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.entryList.Title = "Tracks needing a match"
	m.candidateList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.resize()
	m.refresh()
	return m
}

// Init performs no initial I/O; the picker starts from the session snapshot.
func (m *Model) Init() tea.Cmd {
	return nil
}

// ViewState returns the view currently shown.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ReviewView:
			return m.handleReviewKeys(msg)
		case CandidateView:
			return m.handleCandidateKeys(msg)
		case ValidateView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case DoneView:
			return m.handleDoneKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()

		case MsgValidationComplete:
			res := msg.data.(validationResult)
			m.summary = &res.summary
			m.err = res.err
			m.drainProgress()
			m.refresh()
			return m, nil
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != DoneView {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + m.renderCurrent()
	}
	return m.renderCurrent()
}

func (m *Model) renderCurrent() string {
	switch m.view {
	case ReviewView:
		return m.renderReview()
	case CandidateView:
		return m.renderCandidates()
	case ValidateView:
		return m.renderValidate()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entryList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.entryList, cmd = m.entryList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.validate):
		return m, m.startValidation()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.entryList.SelectedItem().(entryItem); ok {
			m.openCandidates(item.entry)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *Model) handleCandidateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.candidateList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.candidateList, cmd = m.candidateList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ReviewView
		return m, nil
	case key.Matches(msg, m.keys.skip):
		m.session.Apply(func(p models.Playlist) models.Playlist { return playlist.Skip(p, m.current.ID) })
		m.skipped++
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.candidateList.SelectedItem().(candidateItem)
		if !ok {
			return m, nil
		}
		m.session.Apply(func(p models.Playlist) models.Playlist {
			return playlist.Select(p, m.current.ID, item.candidate.ID)
		})
		m.resolved++
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.candidateList, cmd = m.candidateList.Update(msg)
	return m, cmd
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.enter):
		return m, tea.Quit
	case key.Matches(msg, m.keys.validate):
		return m, m.startValidation()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ReviewView:
		m.entryList, cmd = m.entryList.Update(msg)
	case CandidateView:
		m.candidateList, cmd = m.candidateList.Update(msg)
	}
	return m, cmd
}

// refresh rebuilds the entry list from the session and picks the view that fits it.
func (m *Model) refresh() {
	pending := playlist.Filter(m.session.Snapshot(), models.NeedsSelection)
	m.entryList.SetItems(entryItems(pending))

	if len(pending) == 0 {
		m.view = DoneView
	} else {
		m.view = ReviewView
	}
}

func (m *Model) openCandidates(e models.TrackEntry) {
	items, hint := candidateItems(e)
	m.current = e
	m.candidateList.SetItems(items)
	m.candidateList.Title = fmt.Sprintf("Matches for '%s' by %s", e.Name, e.Artist)
	m.candidateList.ResetFilter()
	if hint >= 0 {
		m.candidateList.Select(hint)
	}
	m.view = CandidateView
}

func (m *Model) resize() {
	m.entryList.SetSize(m.width-4, m.height-8)
	m.candidateList.SetSize(m.width-4, m.height-8)
}

func (m *Model) startValidation() tea.Cmd {
	if m.reconciler == nil {
		return nil
	}

	m.view = ValidateView
	m.err = nil
	m.summary = nil
	m.progress = tasks.ProgressUpdate{}

	go func() {
		summary, err := m.reconciler.ValidateSession(m.ctx, m.session)
		m.done <- validationResult{summary, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case res := <-done:
			return validationCompleteMsg(res.summary, res.err)
		}
	}
}

// drainProgress discards updates left over from a finished run.
func (m *Model) drainProgress() {
	for {
		select {
		case <-m.progressChan:
		default:
			return
		}
	}
}

func (m *Model) renderReview() string {
	helpKeys := []key.Binding{m.keys.enter}
	if m.reconciler != nil {
		helpKeys = append(helpKeys, m.keys.validate)
	}
	helpKeys = append(helpKeys, m.keys.quit)
	return fmt.Sprintf("%s\n\n%s", m.entryList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCandidates() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.skip, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.candidateList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderValidate() string {
	title := styles.title.Render("Validating Tracks")

	var phase string
	switch m.progress.Phase {
	case tasks.ValidateTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ApplyResults:
		phase = fmt.Sprintf("Applied %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderDone() string {
	title := styles.ok.Render("✓ Nothing left to choose")
	info := fmt.Sprintf("\nResolved: %d\nSkipped: %d", m.resolved, m.skipped)

	if m.summary != nil {
		info += "\n\n" + m.summary.String()
	}

	var failed string
	if errored := playlist.Filter(m.session.Snapshot(), models.Error); len(errored) > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("%d tracks without a match:", len(errored)))
		for _, e := range errored {
			failed += fmt.Sprintf("\n  • %s - %s (%s)", e.Artist, e.Name, e.Error)
		}
	}

	if m.err != nil {
		failed += "\n\n" + styles.err.Render(fmt.Sprintf("Validation failed: %v", m.err))
	}

	helpKeys := []key.Binding{m.keys.quit}
	if m.reconciler != nil {
		helpKeys = append([]key.Binding{m.keys.validate}, helpKeys...)
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, m.help.ShortHelpView(helpKeys))
}
