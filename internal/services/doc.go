// Package services talks to the outside world: the music catalog and the recommendation generator.
//
// # Catalog
//
// [Catalog] is the narrow interface reconciliation depends on: a track search and a playlist listing.
// [SpotifyService] implements it against the Spotify Web API, mapping JSON responses into
// [models.CandidateMatch] and [models.PlaylistSummary] once at the boundary.
//
// Outbound requests pass a [rate.Limiter] and use an [oauth2] client that refreshes expired tokens.
// Refreshed tokens are reported through [SpotifyService.SetTokenRefreshCallback] so callers can persist them.
//
// # Error Handling
//
// Every catalog failure is a [*CatalogError] whose kind matches a shared sentinel:
//   - [Unauthorized] : [shared.ErrNotAuthenticated] (401, missing token, failed refresh)
//   - [RateLimited] : [shared.ErrRateLimited] (429)
//   - [UpstreamFailure] : [shared.ErrAPIRequest] (transport errors, other non-2xx, malformed bodies)
//
// Nothing here retries.
//
// # Recommendation Sources
//
// [RecommendationSource] produces [models.RecommendationRecord] values. [ChatSource] calls an
// OpenAI-compatible chat completions endpoint through [APIService]; [FileSource] replays a JSON file or
// the built-in sample set.
package services
