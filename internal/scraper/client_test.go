package scraper

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mkessler/rentalintel/pkg/errors"
)

// mockCache is an in-memory CacheService for tests
type mockCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string][]byte)}
}

func (m *mockCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *mockCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func TestClientFetchSearchResults(t *testing.T) {
	client := NewClient("https://example.org/search", time.Minute, newMockCache())
	client.fetchFunc = func(url string) (io.Reader, error) {
		assert.Equal(t, "https://example.org/search", url)
		return strings.NewReader(searchHTML), nil
	}

	records, err := client.FetchSearchResults()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestClientFetchDetails(t *testing.T) {
	client := NewClient("https://example.org/search", time.Minute, newMockCache())
	client.fetchFunc = func(url string) (io.Reader, error) {
		return strings.NewReader(detailHTML), nil
	}

	d, err := client.FetchDetails("https://example.org/apa/7700001111.html")
	require.NoError(t, err)
	assert.Equal(t, 2, *d.Bedrooms)
}

func TestClientNetworkErrorTyped(t *testing.T) {
	client := NewClient("https://example.org/search", time.Minute, newMockCache())
	client.fetchFunc = func(url string) (io.Reader, error) {
		return nil, errors.New("connection refused")
	}

	_, err := client.FetchSearchResults()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
}

func TestClientRateLimitSetsBlock(t *testing.T) {
	cacheSvc := newMockCache()
	client := NewClient("https://example.org/search", time.Minute, cacheSvc)

	calls := 0
	client.fetchFunc = func(url string) (io.Reader, error) {
		calls++
		return nil, errors.New("rate limited; retry after 60")
	}

	_, err := client.FetchSearchResults()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))

	// The block key short-circuits the next fetch entirely.
	_, err = client.FetchSearchResults()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))
	assert.Equal(t, 1, calls)
}
