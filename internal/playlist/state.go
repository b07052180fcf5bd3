package playlist

import (
	"fmt"
	"slices"

	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
)

// User-visible error messages stored on entries in the [models.Error] state.
const (
	MsgNoMatches        = "No matches found on Spotify"
	MsgValidationFailed = "Validation failed"
	MsgNoMatchSelected  = "No match selected"
)

// EventKind names a validation lifecycle event.
type EventKind int

const (
	EventValidate EventKind = iota
	EventResolve
	EventFail
	EventCancel
	EventSelect
	EventSkip
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventValidate:
		return "validate"
	case EventResolve:
		return "resolve"
	case EventFail:
		return "fail"
	case EventCancel:
		return "cancel"
	case EventSelect:
		return "select"
	case EventSkip:
		return "skip"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is one input to [Transition]. Outcome is read for [EventResolve], Reason for [EventFail]
// and CandidateID for [EventSelect].
type Event struct {
	Kind        EventKind
	Outcome     matcher.Outcome
	Reason      string
	CandidateID string
}

// Transition applies ev to the entry id, enforcing the lifecycle table.
func Transition(p models.Playlist, id string, ev Event) (models.Playlist, error) {
	i := Index(p, id)
	if i < 0 {
		return p, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
	}

	e := p.Entries[i]
	next, err := step(e, ev)
	if err != nil {
		return p, fmt.Errorf("%w: %s on %s entry %s", err, ev.Kind, e.State, id)
	}
	return replace(p, i, next), nil
}

func step(e models.TrackEntry, ev Event) (models.TrackEntry, error) {
	switch ev.Kind {
	case EventValidate:
		if e.State != models.Unvalidated {
			return e, shared.ErrIllegalTransition
		}
		return withState(e, models.Validating), nil

	case EventResolve:
		if e.State != models.Unvalidated && e.State != models.Validating {
			return e, shared.ErrIllegalTransition
		}
		return resolved(e, ev.Outcome), nil

	case EventFail:
		if e.State != models.Unvalidated && e.State != models.Validating {
			return e, shared.ErrIllegalTransition
		}
		reason := ev.Reason
		if reason == "" {
			reason = MsgValidationFailed
		}
		return failed(e, reason), nil

	case EventCancel:
		if e.State != models.Validating {
			return e, shared.ErrIllegalTransition
		}
		return withState(e, models.Unvalidated), nil

	case EventSelect:
		if e.State != models.NeedsSelection {
			return e, shared.ErrIllegalTransition
		}
		j := slices.IndexFunc(e.Candidates, func(c models.CandidateMatch) bool { return c.ID == ev.CandidateID })
		if j < 0 {
			return e, shared.ErrCandidateNotFound
		}
		return matched(e, e.Candidates[j]), nil

	case EventSkip:
		if e.State != models.NeedsSelection {
			return e, shared.ErrIllegalTransition
		}
		return failed(e, MsgNoMatchSelected), nil

	case EventReset:
		switch e.State {
		case models.Validated, models.NeedsSelection, models.Error:
			return withState(e, models.Unvalidated), nil
		}
		return e, shared.ErrIllegalTransition
	}

	return e, shared.ErrIllegalTransition
}

// withState moves e to s, clearing every state-bound field.
func withState(e models.TrackEntry, s models.ValidationState) models.TrackEntry {
	e.State = s
	e.Match = nil
	e.Candidates = nil
	e.Error = ""
	return e
}

func resolved(e models.TrackEntry, o matcher.Outcome) models.TrackEntry {
	switch o.Kind {
	case matcher.ExactMatch:
		if o.Match != nil {
			return matched(e, *o.Match)
		}
	case matcher.MultipleMatches:
		if len(o.Candidates) > 0 {
			e = withState(e, models.NeedsSelection)
			e.Candidates = slices.Clone(o.Candidates)
			return e
		}
	}
	return failed(e, MsgNoMatches)
}

func matched(e models.TrackEntry, c models.CandidateMatch) models.TrackEntry {
	e = withState(e, models.Validated)
	m := c.Resolved()
	e.Match = &m
	if e.DurationMS == 0 && c.DurationMS > 0 {
		e.DurationMS = c.DurationMS
	}
	return e
}

func failed(e models.TrackEntry, reason string) models.TrackEntry {
	e = withState(e, models.Error)
	e.Error = reason
	return e
}

// lenient applies ev and absorbs unknown ids and illegal transitions.
func lenient(p models.Playlist, id string, ev Event) models.Playlist {
	next, err := Transition(p, id, ev)
	if err != nil {
		return p
	}
	return next
}

// MarkValidating moves an Unvalidated entry to Validating.
func MarkValidating(p models.Playlist, id string) models.Playlist {
	return lenient(p, id, Event{Kind: EventValidate})
}

// ApplyOutcome records a resolver outcome on an Unvalidated or Validating entry.
func ApplyOutcome(p models.Playlist, id string, o matcher.Outcome) models.Playlist {
	return lenient(p, id, Event{Kind: EventResolve, Outcome: o})
}

// Fail moves an Unvalidated or Validating entry to Error with reason.
func Fail(p models.Playlist, id, reason string) models.Playlist {
	return lenient(p, id, Event{Kind: EventFail, Reason: reason})
}

// Cancel returns a Validating entry to Unvalidated.
func Cancel(p models.Playlist, id string) models.Playlist {
	return lenient(p, id, Event{Kind: EventCancel})
}

// Select resolves a NeedsSelection entry to the candidate with candidateID.
func Select(p models.Playlist, id, candidateID string) models.Playlist {
	return lenient(p, id, Event{Kind: EventSelect, CandidateID: candidateID})
}

// Skip declines every candidate of a NeedsSelection entry.
func Skip(p models.Playlist, id string) models.Playlist {
	return lenient(p, id, Event{Kind: EventSkip})
}

// Reset returns a settled entry to Unvalidated so it can be validated again.
func Reset(p models.Playlist, id string) models.Playlist {
	return lenient(p, id, Event{Kind: EventReset})
}
