// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://127.0.0.1:3000/callback"
	playlistPageSize   = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track object.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Popularity   int             `json:"popularity"`
	PreviewURL   *string         `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyAudioFeatures is one entry of the audio-features endpoint.
type SpotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Tempo            float64 `json:"tempo"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Instrumentalness float64 `json:"instrumentalness"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       owner  `json:"owner"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the service at a different API root.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimSuffix(u, "/") }
}

// WithRateLimit caps outbound requests per second. Zero or negative disables the limiter.
func WithRateLimit(perSecond float64) SpotifyOption {
	return func(s *SpotifyService) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) SpotifyOption {
	return func(s *SpotifyService) { s.timeout = d }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = l }
}

// SpotifyService implements [OAuthService] against the Spotify Web API.
// Uses [oauth2] for authentication and a [rate.Limiter] for outbound pacing.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	source         *refreshableTokenSource
	onTokenRefresh func(*oauth2.Token)
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	timeout        time.Duration
	logger         *log.Logger
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	callback := r.callback
	r.mu.Unlock()

	if changed && callback != nil {
		callback(token)
	}
	return token, nil
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		timeout:    15 * time.Second,
		logger:     shared.WithLogger(shared.NewLogger(io.Discard), "service", "spotify"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate installs a token from credentials.
//
// "access_token" (optionally with "refresh_token") is used as-is; "auth_code" is exchanged.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
		return nil
	}

	if refresh := credentials["refresh_token"]; refresh != "" {
		token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
		if err != nil {
			return fmt.Errorf("%w: refresh failed: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
}

// SetToken installs token and rebuilds the refreshing HTTP client.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.source = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	client := oauth2.NewClient(ctx, s.source)
	client.Timeout = s.timeout
	s.httpClient = client
}

// SetTokenRefreshCallback registers fn to receive every token the client obtains by refreshing.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
	if s.source != nil {
		s.source.mu.Lock()
		s.source.callback = fn
		s.source.mu.Unlock()
	}
}

// Token returns the current token, refreshed if the client has renewed it.
func (s *SpotifyService) Token() *oauth2.Token {
	if s.source != nil {
		if fresh, err := s.source.Token(); err == nil {
			return fresh
		}
	}
	return s.token
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuth2Config returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuth2Config() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
//
// Failures are reported as [*CatalogError].
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if s.token == nil || s.token.AccessToken == "" {
		return catalogErr(Unauthorized, 0, shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return catalogErr(UpstreamFailure, 0, err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return catalogErr(UpstreamFailure, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("request", "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return catalogErr(Unauthorized, status, err)
		}
		return catalogErr(UpstreamFailure, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return catalogErr(Unauthorized, resp.StatusCode, shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		return catalogErr(RateLimited, resp.StatusCode, fmt.Errorf("retry after %ss", resp.Header.Get("Retry-After")))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return catalogErr(UpstreamFailure, resp.StatusCode, fmt.Errorf("spotify API error: %s", strings.TrimSpace(string(body))))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return catalogErr(UpstreamFailure, resp.StatusCode, fmt.Errorf("%w: %v", shared.ErrInvalidResponse, err))
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Search runs a track search and maps the hits to [models.CandidateMatch] in catalog order.
func (s *SpotifyService) Search(ctx context.Context, query string, opts matcher.SearchOptions) ([]models.CandidateMatch, error) {
	params := url.Values{}
	params.Set("q", opts.Qualify(query))
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(opts.ClampedLimit()))

	var response searchResponse
	if err := s.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.CandidateMatch, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		candidates = append(candidates, toCandidate(t))
	}
	return candidates, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.CandidateMatch, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	c := toCandidate(track)
	return &c, nil
}

// AudioFeatures fetches acoustic descriptors for up to 100 tracks, keyed by track id.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return map[string]models.AudioFeatures{}, nil
	}
	if len(trackIDs) > 100 {
		return nil, fmt.Errorf("%w: maximum 100 track IDs allowed", shared.ErrInvalidArgument)
	}

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}
	params := url.Values{"ids": {strings.Join(trackIDs, ",")}}
	if err := s.doRequest(ctx, "/audio-features", params, &response); err != nil {
		return nil, err
	}

	features := make(map[string]models.AudioFeatures, len(response.AudioFeatures))
	for _, f := range response.AudioFeatures {
		if f == nil {
			continue
		}
		features[f.ID] = models.AudioFeatures{
			Tempo:        f.Tempo,
			Energy:       f.Energy,
			Danceability: f.Danceability,
			Valence:      f.Valence,
			Instrumental: f.Instrumentalness,
		}
	}
	return features, nil
}

// WithFeatures attaches audio features to candidates. Lookup failures are logged and leave candidates bare.
func (s *SpotifyService) WithFeatures(ctx context.Context, candidates []models.CandidateMatch) []models.CandidateMatch {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	features, err := s.AudioFeatures(ctx, ids)
	if err != nil {
		s.logger.Warn("audio features unavailable", "error", err)
		return candidates
	}

	out := make([]models.CandidateMatch, len(candidates))
	for i, c := range candidates {
		if f, ok := features[c.ID]; ok {
			c.Features = &f
		}
		out[i] = c
	}
	return out
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > playlistPageSize {
		limit = playlistPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, "/me/playlists", params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ListPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) ListPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	var all []models.PlaylistSummary
	offset := 0

	for {
		response, err := s.UserPlaylists(ctx, playlistPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			owner := sp.Owner.DisplayName
			if owner == "" {
				owner = sp.Owner.ID
			}
			all = append(all, models.PlaylistSummary{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
				Owner:       owner,
			})
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += len(response.Items)
	}

	return all, nil
}

// SavePlaylist would create a provider playlist from the validated entries.
func (s *SpotifyService) SavePlaylist(ctx context.Context, p models.Playlist, public bool) (*models.PlaylistSummary, error) {
	return nil, fmt.Errorf("saving %q to Spotify: %w", p.Name, shared.ErrNotImplemented)
}

func toCandidate(t SpotifyTrack) models.CandidateMatch {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	c := models.CandidateMatch{
		ID:          t.ID,
		URI:         t.URI,
		ExternalURL: t.ExternalURLs.Spotify,
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		DurationMS:  t.DurationMS,
		Popularity:  t.Popularity,
	}
	if t.PreviewURL != nil {
		c.PreviewURL = *t.PreviewURL
	}
	return c
}
