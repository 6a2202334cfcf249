package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/weeklyfeed/fetcher/types"
)

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
</feed>`

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Blog</title></channel></rss>`

func setupTestServer(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, content)
	}))
}

func TestRSSFetcher_DetectsKind(t *testing.T) {
	tests := []struct {
		name string
		body string
		want types.Kind
	}{
		{name: "rss", body: testRSSFeed, want: types.RSS},
		{name: "atom", body: testAtomFeed, want: types.Atom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupTestServer(tt.body)
			defer srv.Close()

			doc, err := NewRSSFetcher(0, "").Fetch(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Kind)
			assert.Equal(t, srv.URL, doc.URL)
			assert.Equal(t, tt.body, string(doc.Body))
		})
	}
}

func TestRSSFetcher_SendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer srv.Close()

	_, err := NewRSSFetcher(0, "").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, got)

	_, err = NewRSSFetcher(0, "weeklyfeed-test/1.0").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "weeklyfeed-test/1.0", got)
}

func TestRSSFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewRSSFetcher(0, "").Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "HTTP Error 404 Not Found", err.Error())
}

func TestRSSFetcher_MalformedBody(t *testing.T) {
	srv := setupTestServer("not xml")
	defer srv.Close()

	_, err := NewRSSFetcher(0, "").Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestRSSFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewRSSFetcher(50*time.Millisecond, "").Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRSSFetcher_InvalidURL(t *testing.T) {
	_, err := NewRSSFetcher(0, "").Fetch(context.Background(), "://missing-scheme")
	assert.Error(t, err)
}
