package tasks

import (
	"fmt"

	"github.com/desertthunder/vibelist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GenerateRecommendations Phase = iota
	ValidateTracks
	ApplyResults
	Complete
)

func (p Phase) String() string {
	switch p {
	case GenerateRecommendations:
		return "generate_recommendations"
	case ValidateTracks:
		return "validate_tracks"
	case ApplyResults:
		return "apply_results"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends update without blocking. A nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func generatingUpdate(prefs models.Preferences) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateRecommendations,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Requesting recommendations (%d BPM, %s)...", prefs.TargetBPM, prefs.Mood),
		Data:    prefs,
	}
}

func generatedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateRecommendations,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Received %d recommendations", count),
	}
}

func validatingUpdate(step, total int, e models.TrackEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching for %s by %s...", e.Name, e.Artist),
		Data:    e,
	}
}

func appliedUpdate(step, total int, e models.TrackEntry) ProgressUpdate {
	msg := fmt.Sprintf("%s: %s", e.Name, e.State)
	if e.Error != "" {
		msg = fmt.Sprintf("%s: %s", e.Name, e.Error)
	}
	return ProgressUpdate{
		Phase:   ApplyResults,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    e,
	}
}

func completeUpdate(s Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    s.Total,
		Total:   s.Total,
		Message: s.String(),
		Data:    s,
	}
}
