package types

import (
	"context"
	"time"
)

// Kind is the structural flavour of a feed document
type Kind string

const (
	RSS  = Kind("rss")
	Atom = Kind("atom")
)

// Source is a single configured feed
type Source struct {
	URL     string   `toml:"url"`
	Enabled *bool    `toml:"enabled"` // Whether this source is active (defaults to true if not set)
	Filters []string `toml:"filters"` // Names of filters to apply (pipeline)
}

// IsEnabled returns true if the source is enabled (defaults to true if not explicitly set)
func (s Source) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Document is the raw body of a fetched feed together with its detected kind
type Document struct {
	URL  string
	Kind Kind
	Body []byte
}

// Entry represents a single item extracted from a feed.
// A zero PublishedAt means the entry carried no usable date.
type Entry struct {
	Title       string
	Link        string
	PublishedAt time.Time
	Description string
}

// FeedFetcher is an interface for fetching raw feed documents
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}
