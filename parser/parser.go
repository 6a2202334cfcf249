package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
	"github.com/samber/lo"
	"golang.org/x/net/html/charset"

	"github.com/scipunch/weeklyfeed/fetcher/types"
	"github.com/scipunch/weeklyfeed/pubdate"
)

const (
	// DefaultWindow is how far back an entry may be published and still be included
	DefaultWindow = 7 * 24 * time.Hour
	// DescriptionLimit caps the stored description, in characters
	DescriptionLimit = 10000

	noTitle = "No title"
)

var errNoRoot = errors.New("document has no root element")

// Cutoff returns the earliest publication time that is still recent
func Cutoff(now time.Time, window time.Duration) time.Time {
	return now.UTC().Add(-window)
}

// DetectKind inspects the root element: a local name ending in "feed" is Atom,
// anything else is treated as RSS.
func DetectKind(body []byte) (types.Kind, error) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return "", errNoRoot
		}
		if err != nil {
			return "", fmt.Errorf("failed to read root element with %w", err)
		}
		if el, ok := tok.(xml.StartElement); ok {
			if strings.HasSuffix(el.Name.Local, "feed") {
				return types.Atom, nil
			}
			return types.RSS, nil
		}
	}
}

// Parse extracts the entries of doc published at or after cutoff, in document order.
// Entries without a usable date are dropped.
func Parse(doc types.Document, cutoff time.Time) ([]types.Entry, error) {
	switch doc.Kind {
	case types.Atom:
		return parseAtom(doc.Body, cutoff)
	default:
		return parseRSS(doc.Body, cutoff)
	}
}

func parseAtom(body []byte, cutoff time.Time) ([]types.Entry, error) {
	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Atom feed with %w", err)
	}

	return lo.FilterMap(feed.Entries, func(e *atom.Entry, _ int) (types.Entry, bool) {
		raw := e.Published
		if raw == "" {
			raw = e.Updated
		}
		published, ok := recent(raw, cutoff)
		if !ok {
			return types.Entry{}, false
		}

		var link string
		if len(e.Links) > 0 {
			link = e.Links[0].Href
		}
		description := e.Summary
		if e.Content != nil && e.Content.Value != "" {
			description = e.Content.Value
		}

		return types.Entry{
			Title:       titleOrDefault(e.Title),
			Link:        link,
			PublishedAt: published,
			Description: truncate(description, DescriptionLimit),
		}, true
	}), nil
}

func parseRSS(body []byte, cutoff time.Time) ([]types.Entry, error) {
	feed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed with %w", err)
	}

	return lo.FilterMap(feed.Items, func(item *rss.Item, _ int) (types.Entry, bool) {
		published, ok := recent(item.PubDate, cutoff)
		if !ok {
			return types.Entry{}, false
		}
		return types.Entry{
			Title:       titleOrDefault(item.Title),
			Link:        item.Link,
			PublishedAt: published,
			Description: truncate(item.Description, DescriptionLimit),
		}, true
	}), nil
}

// recent parses raw and reports whether it is a date no older than cutoff.
func recent(raw string, cutoff time.Time) (time.Time, bool) {
	published, ok := pubdate.Parse(raw)
	if !ok || published.Before(cutoff) {
		return time.Time{}, false
	}
	return published, true
}

func titleOrDefault(title string) string {
	if title == "" {
		return noTitle
	}
	return title
}

// truncate cuts s to at most maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
