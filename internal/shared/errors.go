package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrAuthFailed       = fmt.Errorf("authentication failed")

	// Catalog and recommendation errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrInvalidResponse    = fmt.Errorf("invalid response")

	// Playlist state errors
	ErrEntryNotFound      = fmt.Errorf("entry not found")
	ErrIllegalTransition  = fmt.Errorf("illegal state transition")
	ErrCandidateNotFound  = fmt.Errorf("candidate not found")
	ErrValidationInFlight = fmt.Errorf("validation already in progress")
	ErrDraftNotFound      = fmt.Errorf("draft not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
