// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// MockCatalog is a scripted test double for [services.Catalog].
//
// Search answers from Results keyed by query string. Errors queued in SearchErrs[query]
// are returned (one per call) before the result is served. AddErrs is consumed the same
// way by AddItems; a nil entry lets that call succeed.
type MockCatalog struct {
	mu sync.Mutex

	Results     map[string][]models.Candidate
	SearchErrs  map[string][]error
	Existing    []string
	SnapshotErr error
	AddErrs     []error

	Queries  []string
	Limits   []int
	Added    [][]string
	AddCalls int
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Results:    map[string][]models.Candidate{},
		SearchErrs: map[string][]error{},
	}
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	m.Limits = append(m.Limits, limit)

	if errs := m.SearchErrs[query]; len(errs) > 0 {
		m.SearchErrs[query] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
	}

	res := m.Results[query]
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return append([]models.Candidate(nil), res...), nil
}

func (m *MockCatalog) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	ids := make(map[string]struct{}, len(m.Existing))
	for _, id := range m.Existing {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *MockCatalog) AddItems(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls++
	if len(m.AddErrs) > 0 {
		err := m.AddErrs[0]
		m.AddErrs = m.AddErrs[1:]
		if err != nil {
			return err
		}
	}
	m.Added = append(m.Added, append([]string(nil), trackIDs...))
	return nil
}

// SearchCount returns how many times query was searched.
func (m *MockCatalog) SearchCount(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.Queries {
		if q == query {
			n++
		}
	}
	return n
}

// AddedIDs flattens every successfully committed batch.
func (m *MockCatalog) AddedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, batch := range m.Added {
		ids = append(ids, batch...)
	}
	return ids
}

// RateLimited builds the error a catalog returns on HTTP 429.
func RateLimited(retryAfter time.Duration) error {
	return &shared.RateLimitError{Status: http.StatusTooManyRequests, RetryAfter: retryAfter}
}

// MemoryCache is an in-memory match cache keyed exactly as given.
type MemoryCache struct {
	mu      sync.Mutex
	Entries map[[2]string]string
	Sets    int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{Entries: map[[2]string]string{}}
}

func (c *MemoryCache) Get(artist, track string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.Entries[[2]string{artist, track}]
	return id, ok, nil
}

func (c *MemoryCache) Set(artist, track, trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	c.Entries[[2]string{artist, track}] = trackID
	return nil
}

// Sleeper records requested sleeps instead of waiting.
type Sleeper struct {
	mu     sync.Mutex
	Sleeps []time.Duration
}

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Sleeps = append(s.Sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Recorded returns a copy of the recorded sleeps.
func (s *Sleeper) Recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.Sleeps...)
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
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

// MustReadJSON decodes the JSON file at path into v.
func MustReadJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(MustReadFile(t, path)), v); err != nil {
		t.Fatalf("Failed to decode %s: %v", path, err)
	}
}
