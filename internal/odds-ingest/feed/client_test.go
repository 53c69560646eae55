package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<BettingData><Time>T</Time><Smith>62.5</Smith></BettingData>`

func TestFetchReturnsRawBody(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := New(srv.URL, WithUserAgent("test-agent"))
	body, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleFeed, string(body))
	assert.Equal(t, 1, hits)
}

func TestFetchNon2xx(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, 1, hits, "no retry")
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetch)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestFetchTimeoutOption(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
}

func TestWithTimeoutZeroKeepsTransportDefault(t *testing.T) {
	c := New("http://example.invalid", WithTimeout(0))
	assert.Zero(t, c.HTTP.Timeout)
}
