// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/vibelist/internal/matcher"
	"github.com/desertthunder/vibelist/internal/models"
)

// MockCatalog is a scripted test double for services.Catalog.
//
// Results and Errors are keyed by the unqualified query string. When Gate is non-nil every Search blocks until a
// value is received from it or ctx is done.
type MockCatalog struct {
	Results   map[string][]models.CandidateMatch
	Errors    map[string]error
	Playlists []models.PlaylistSummary
	ListErr   error
	Gate      chan struct{}

	mu          sync.Mutex
	calls       []string
	options     []matcher.SearchOptions
	inFlight    int
	maxInFlight int
}

// NewMockCatalog returns an empty catalog that answers every search with no hits.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Results: map[string][]models.CandidateMatch{},
		Errors:  map[string]error{},
	}
}

// On scripts the candidates returned for query.
func (m *MockCatalog) On(query string, candidates ...models.CandidateMatch) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[query] = candidates
	return m
}

// Fail scripts err for query.
func (m *MockCatalog) Fail(query string, err error) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[query] = err
	return m
}

func (m *MockCatalog) Search(ctx context.Context, query string, opts matcher.SearchOptions) ([]models.CandidateMatch, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.options = append(m.options, opts)
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	gate := m.Gate
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[query]; ok {
		return nil, err
	}
	return slices.Clone(m.Results[query]), nil
}

func (m *MockCatalog) ListPlaylists(ctx context.Context) ([]models.PlaylistSummary, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Playlists, nil
}

// Calls returns the queries searched so far, in call order.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Options returns the search options of each call, in call order.
func (m *MockCatalog) Options() []matcher.SearchOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.options)
}

// MaxInFlight returns the highest number of concurrent searches observed.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// MockSource is a test double for services.RecommendationSource.
type MockSource struct {
	Records []models.RecommendationRecord
	Err     error
	Prefs   []models.Preferences
}

func (m *MockSource) Generate(ctx context.Context, prefs models.Preferences) ([]models.RecommendationRecord, error) {
	m.Prefs = append(m.Prefs, prefs)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// Candidate builds a catalog hit with predictable identity fields.
func Candidate(id, name string, artists ...string) models.CandidateMatch {
	return models.CandidateMatch{
		ID:          id,
		URI:         "spotify:track:" + id,
		ExternalURL: "https://open.spotify.com/track/" + id,
		Name:        name,
		Artists:     artists,
		Album:       "Album " + id,
		DurationMS:  200000,
		Popularity:  50,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
