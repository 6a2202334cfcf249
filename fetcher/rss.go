package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scipunch/weeklyfeed/fetcher/types"
	"github.com/scipunch/weeklyfeed/parser"
)

// RSSFetcher downloads RSS and Atom documents over HTTP
type RSSFetcher struct {
	client    *http.Client
	userAgent string
}

// NewRSSFetcher creates a new fetcher; zero values fall back to the defaults
func NewRSSFetcher(timeout time.Duration, userAgent string) *RSSFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RSSFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves the document at url and detects whether it is RSS or Atom
func (f *RSSFetcher) Fetch(ctx context.Context, url string) (types.Document, error) {
	doc := types.Document{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return doc, fmt.Errorf("failed to build request with %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return doc, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return doc, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	doc.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		return doc, fmt.Errorf("failed to read response body with %w", err)
	}

	doc.Kind, err = parser.DetectKind(doc.Body)
	if err != nil {
		return doc, err
	}
	return doc, nil
}
