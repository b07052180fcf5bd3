package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
	"github.com/desertthunder/vibelist/internal/shared"
	"golang.org/x/oauth2"
)

var testCredentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
}

// newTestSpotify returns an authenticated service pointed at handler.
func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(testCredentials, WithBaseURL(server.URL), WithRateLimit(0))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv
}

func trackJSON(id, name string, artists ...string) map[string]any {
	as := make([]map[string]any, len(artists))
	for i, a := range artists {
		as[i] = map[string]any{"id": "a" + a, "name": a}
	}
	return map[string]any{
		"id":            id,
		"name":          name,
		"artists":       as,
		"album":         map[string]any{"id": "al", "name": "Album"},
		"duration_ms":   210000,
		"popularity":    70,
		"preview_url":   nil,
		"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/" + id},
		"uri":           "spotify:track:" + id,
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:9999/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.GetOAuth2Config().RedirectURL != "http://localhost:9999/callback" {
				t.Errorf("unexpected redirect %s", srv.GetOAuth2Config().RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials)
		authURL := srv.GetAuthURL("test_state")

		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL should contain %q: %s", want, authURL)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials)

		t.Run("WithAccessToken", func(t *testing.T) {
			if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
				t.Fatalf("expected no error with access token, got %v", err)
			}
			if srv.Token().AccessToken != "tok" {
				t.Errorf("expected access token 'tok', got %s", srv.Token().AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Implements OAuthService", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials)
		var _ OAuthService = srv
	})
}

func TestSpotifySearch(t *testing.T) {
	t.Run("maps tracks in catalog order", func(t *testing.T) {
		var gotQuery, gotLimit, gotType, gotAuth string
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotQuery = r.URL.Query().Get("q")
			gotLimit = r.URL.Query().Get("limit")
			gotType = r.URL.Query().Get("type")
			gotAuth = r.Header.Get("Authorization")

			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{"items": []any{
					trackJSON("2", "Song B", "Band"),
					trackJSON("1", "Song A", "Band", "Guest"),
				}},
			})
		})

		got, err := srv.Search(context.Background(), "Song Band", matcher.SearchOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotQuery != "Song Band" || gotLimit != "10" || gotType != "track" {
			t.Errorf("unexpected request q=%q limit=%q type=%q", gotQuery, gotLimit, gotType)
		}
		if gotAuth != "Bearer test_token" {
			t.Errorf("unexpected auth header %q", gotAuth)
		}
		if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
			t.Fatalf("unexpected candidates %+v", got)
		}
		if got[1].Artist() != "Band, Guest" {
			t.Errorf("unexpected artists %q", got[1].Artist())
		}
		if got[0].URI != "spotify:track:2" || got[0].ExternalURL != "https://open.spotify.com/track/2" {
			t.Errorf("unexpected identity %+v", got[0])
		}
		if got[0].PreviewURL != "" {
			t.Error("null preview_url should map to empty string")
		}
	})

	t.Run("qualifies and clamps", func(t *testing.T) {
		var gotQuery, gotLimit string
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotLimit = r.URL.Query().Get("limit")
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})

		got, err := srv.Search(context.Background(), "x", matcher.SearchOptions{Limit: 500, Genre: "rock", YearFrom: 1970, YearTo: 1979})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no candidates, got %d", len(got))
		}
		if gotQuery != "x genre:rock year:1970-1979" {
			t.Errorf("unexpected query %q", gotQuery)
		}
		if gotLimit != "50" {
			t.Errorf("expected clamped limit 50, got %s", gotLimit)
		}
	})

	t.Run("error taxonomy", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			kind   ErrorKind
			target error
		}{
			{"unauthorized", http.StatusUnauthorized, Unauthorized, shared.ErrNotAuthenticated},
			{"rate limited", http.StatusTooManyRequests, RateLimited, shared.ErrRateLimited},
			{"server error", http.StatusBadGateway, UpstreamFailure, shared.ErrAPIRequest},
			{"bad request", http.StatusBadRequest, UpstreamFailure, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "nope", tt.status)
				})

				_, err := srv.Search(context.Background(), "q", matcher.SearchOptions{})
				var ce *CatalogError
				if !errors.As(err, &ce) {
					t.Fatalf("expected *CatalogError, got %T %v", err, err)
				}
				if ce.Kind != tt.kind || ce.Status != tt.status {
					t.Errorf("expected %s/%d, got %s/%d", tt.kind, tt.status, ce.Kind, ce.Status)
				}
				if !errors.Is(err, tt.target) {
					t.Errorf("expected errors.Is %v", tt.target)
				}
			})
		}
	})

	t.Run("malformed body is upstream failure", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks":`)
		})
		_, err := srv.Search(context.Background(), "q", matcher.SearchOptions{})
		if !errors.Is(err, shared.ErrAPIRequest) || !errors.Is(err, shared.ErrInvalidResponse) {
			t.Errorf("expected upstream invalid response, got %v", err)
		}
	})

	t.Run("without token", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials)
		_, err := srv.Search(context.Background(), "q", matcher.SearchOptions{})
		if !IsUnauthorized(err) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := srv.Search(ctx, "q", matcher.SearchOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSpotifyListPlaylists(t *testing.T) {
	pages := 0
	var srvURL string
	srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/playlists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		pages++
		offset := r.URL.Query().Get("offset")
		if r.URL.Query().Get("limit") != "50" {
			t.Errorf("expected limit 50, got %s", r.URL.Query().Get("limit"))
		}

		item := func(id string) map[string]any {
			return map[string]any{
				"id": id, "name": "Playlist " + id, "description": "d", "public": true,
				"owner":  map[string]any{"id": "u1", "display_name": ""},
				"tracks": map[string]any{"total": 3},
			}
		}

		if offset == "0" {
			next := srvURL + "/me/playlists?offset=2"
			json.NewEncoder(w).Encode(map[string]any{"items": []any{item("a"), item("b")}, "next": next})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []any{item("c")}, "next": nil})
	})
	srvURL = srv.baseURL

	got, err := srv.ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}
	if len(got) != 3 || got[2].ID != "c" {
		t.Fatalf("unexpected playlists %+v", got)
	}
	if got[0].Owner != "u1" || got[0].TrackCount != 3 || !got[0].Public {
		t.Errorf("unexpected mapping %+v", got[0])
	}
}

func TestSpotifyAudioFeatures(t *testing.T) {
	srv := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "1,2" {
			t.Errorf("unexpected ids %s", r.URL.Query().Get("ids"))
		}
		fmt.Fprint(w, `{"audio_features":[{"id":"1","tempo":120.5,"energy":0.8},null]}`)
	})

	cands := []models.CandidateMatch{{ID: "1"}, {ID: "2"}}
	got := srv.WithFeatures(context.Background(), cands)
	if got[0].Features == nil || got[0].Features.Tempo != 120.5 {
		t.Errorf("expected features on first candidate, got %+v", got[0].Features)
	}
	if got[1].Features != nil {
		t.Error("expected no features on second candidate")
	}
	if cands[0].Features != nil {
		t.Error("input candidates were mutated")
	}

	t.Run("failures leave candidates bare", func(t *testing.T) {
		failing := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		})
		got := failing.WithFeatures(context.Background(), cands)
		if got[0].Features != nil {
			t.Error("expected bare candidates")
		}
	})
}

func TestSavePlaylist(t *testing.T) {
	srv, _ := NewSpotifyService(testCredentials)
	_, err := srv.SavePlaylist(context.Background(), models.Playlist{Name: "x"}, false)
	if !errors.Is(err, shared.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback when token changes", func(t *testing.T) {
		var captured []string
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}
		source := &refreshableTokenSource{
			source:   mock,
			callback: func(tok *oauth2.Token) { captured = append(captured, tok.AccessToken) },
		}

		source.Token()
		source.Token()
		mock.token = &oauth2.Token{AccessToken: "token2"}
		source.Token()

		if strings.Join(captured, ",") != "token1,token2" {
			t.Errorf("unexpected callbacks %v", captured)
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &refreshableTokenSource{
			source:   &mockTokenSource{err: errors.New("token source error")},
			callback: func(*oauth2.Token) { t.Error("callback should not be called on error") },
		}
		if _, err := source.Token(); err == nil {
			t.Fatal("expected error from source")
		}
	})

	t.Run("callback registered after SetToken", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials)
		srv.SetToken(context.Background(), &oauth2.Token{AccessToken: "a"})

		called := false
		srv.SetTokenRefreshCallback(func(*oauth2.Token) { called = true })
		srv.source.source = &mockTokenSource{token: &oauth2.Token{AccessToken: "b"}}

		if srv.Token().AccessToken != "b" || !called {
			t.Error("expected refreshed token to reach the callback")
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
