package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/playlist"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
)

// Recommend asks src for recommendations and appends them to the session as Unvalidated entries.
//
// Returns the appended entries with their assigned ids.
func Recommend(
	ctx context.Context,
	src services.RecommendationSource,
	prefs models.Preferences,
	s *Session,
	ids playlist.IDGenerator,
	progress chan<- ProgressUpdate,
) ([]models.TrackEntry, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: recommendation source not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, generatingUpdate(prefs))
	records, err := src.Generate(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}
	sendProgress(progress, generatedUpdate(len(records)))

	var added []models.TrackEntry
	s.Apply(func(p models.Playlist) models.Playlist {
		added = added[:0]
		for _, entry := range playlist.FromRecommendations(records) {
			var stored models.TrackEntry
			p, stored = playlist.AppendEntry(p, entry, ids)
			added = append(added, stored)
		}
		return p
	})
	return added, nil
}
