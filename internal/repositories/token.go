package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository stores one OAuth token per provider.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save inserts or replaces the token for service.
//
// An empty refresh token keeps the stored one, since refresh responses may omit it.
func (r *TokenRepository) Save(service string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	var expiry any
	if !token.Expiry.IsZero() {
		expiry = token.Expiry
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	query := `
		INSERT INTO tokens (service, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN tokens.refresh_token ELSE excluded.refresh_token END,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, service, token.AccessToken, token.RefreshToken, tokenType, expiry, time.Now()); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Get returns the stored token for service or [shared.ErrNotAuthenticated].
func (r *TokenRepository) Get(service string) (*oauth2.Token, error) {
	query := `SELECT access_token, refresh_token, token_type, expiry FROM tokens WHERE service = ?`

	var (
		token  oauth2.Token
		expiry sql.NullTime
	)
	err := r.db.QueryRow(query, service).Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no token stored for %s", shared.ErrNotAuthenticated, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return &token, nil
}

// Delete removes the token for service. Deleting a missing token is not an error.
func (r *TokenRepository) Delete(service string) error {
	if _, err := r.db.Exec(`DELETE FROM tokens WHERE service = ?`, service); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
