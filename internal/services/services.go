package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/oauth2"
)

// Catalog is the read-only view of a music catalog used by reconciliation.
type Catalog interface {
	// Search returns up to opts.Limit tracks matching query, in catalog order.
	Search(ctx context.Context, query string, opts matcher.SearchOptions) ([]models.CandidateMatch, error)

	// ListPlaylists returns every playlist visible to the authenticated user.
	ListPlaylists(ctx context.Context) ([]models.PlaylistSummary, error)
}

// OAuthService is a [Catalog] that authenticates through the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// Authenticate accepts an "access_token", "refresh_token" or "auth_code" credential.
	Authenticate(ctx context.Context, credentials map[string]string) error

	GetAuthURL(state string) string
	GetOAuth2Config() *oauth2.Config
	Token() *oauth2.Token
	Name() string
}

// FeatureCatalog is a [Catalog] that can attach audio features to search results.
type FeatureCatalog interface {
	Catalog
	WithFeatures(ctx context.Context, candidates []models.CandidateMatch) []models.CandidateMatch
}

// RecommendationSource produces loosely specified track suggestions for a set of preferences.
type RecommendationSource interface {
	Generate(ctx context.Context, prefs models.Preferences) ([]models.RecommendationRecord, error)
}

// ErrorKind classifies a [CatalogError].
type ErrorKind int

const (
	UpstreamFailure ErrorKind = iota
	Unauthorized
	RateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case RateLimited:
		return "rate_limited"
	default:
		return "upstream_failure"
	}
}

// CatalogError is returned by every [Catalog] call that fails.
//
// errors.Is matches [shared.ErrNotAuthenticated], [shared.ErrRateLimited] or [shared.ErrAPIRequest] by kind.
type CatalogError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("catalog %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Kind, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func (e *CatalogError) Is(target error) bool {
	switch target {
	case shared.ErrNotAuthenticated:
		return e.Kind == Unauthorized
	case shared.ErrRateLimited:
		return e.Kind == RateLimited
	case shared.ErrAPIRequest:
		return e.Kind == UpstreamFailure
	}
	return false
}

// IsUnauthorized reports whether err means the session must re-authenticate.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated)
}

func catalogErr(kind ErrorKind, status int, err error) *CatalogError {
	return &CatalogError{Kind: kind, Status: status, Err: err}
}
