// Package newsletter runs the fetch, parse, filter and format cycle over a
// list of sources and assembles the combined digest.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/scipunch/weeklyfeed/digest"
	"github.com/scipunch/weeklyfeed/fetcher/types"
	"github.com/scipunch/weeklyfeed/filter"
	"github.com/scipunch/weeklyfeed/parser"
)

type Options struct {
	Fetcher  types.FeedFetcher
	Filters  *filter.FilterPipeline // Optional
	Window   time.Duration
	MaxChars int
	Now      func() time.Time
	Progress io.Writer // Human readable progress lines
	Log      *zap.SugaredLogger
}

// FeedDigest is the outcome for a single source
type FeedDigest struct {
	Source  types.Source
	Entries []types.Entry
	Text    string
	Err     error // Fetch or parse failure; Entries is empty when set
}

type Result struct {
	Digests []FeedDigest
	Text    string
}

// Errors joins the per-feed failures of the run
func (r Result) Errors() error {
	var errs []error
	for _, d := range r.Digests {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("'%s' failed with %w", d.Source.URL, d.Err))
		}
	}
	return errors.Join(errs...)
}

// Run processes every enabled source in order, one at a time. A failing source
// contributes an empty digest and never stops the run; only ctx cancellation does.
func Run(ctx context.Context, sources []types.Source, opts Options) (Result, error) {
	opts = withDefaults(opts)
	cutoff := parser.Cutoff(opts.Now(), opts.Window)

	fmt.Fprintf(opts.Progress, "Fetching RSS feeds for the past %s...\n\n", describeWindow(opts.Window))
	opts.Log.Debugw("starting run", "sources", len(sources), "cutoff", cutoff)

	var result Result
	var texts []string
	for _, source := range sources {
		if !source.IsEnabled() {
			opts.Log.Debugw("skipping disabled source", "url", source.URL)
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fmt.Fprintf(opts.Progress, "Processing: %s\n", source.URL)
		d := processSource(ctx, source, cutoff, opts)
		result.Digests = append(result.Digests, d)
		texts = append(texts, d.Text)
	}
	result.Text = digest.Join(texts)

	return result, nil
}

func processSource(ctx context.Context, source types.Source, cutoff time.Time, opts Options) FeedDigest {
	d := FeedDigest{Source: source}

	entries, err := fetchEntries(ctx, source.URL, cutoff, opts.Fetcher)
	if err != nil {
		fmt.Fprintf(opts.Progress, "Error fetching %s: %s\n", source.URL, err)
		opts.Log.Warnw("feed failed", "url", source.URL, "error", err)
		d.Err = err
		entries = nil
	}
	if opts.Filters != nil {
		entries = opts.Filters.Apply(entries, source.Filters)
	}

	d.Entries = entries
	d.Text = digest.Format(source.URL, entries, opts.MaxChars)
	opts.Log.Infow("feed processed", "url", source.URL, "entries", len(entries), "length", len(d.Text))
	return d
}

func fetchEntries(ctx context.Context, url string, cutoff time.Time, f types.FeedFetcher) ([]types.Entry, error) {
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return parser.Parse(doc, cutoff)
}

// WriteFile replaces the digest file at path with text
func WriteFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write digest to '%s' with %w", path, err)
	}
	return nil
}

func withDefaults(opts Options) Options {
	if opts.Window <= 0 {
		opts.Window = parser.DefaultWindow
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = digest.DefaultMaxChars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	return opts
}

func describeWindow(window time.Duration) string {
	if window == parser.DefaultWindow {
		return "week"
	}
	days := int(window / (24 * time.Hour))
	if days == 1 {
		return "day"
	}
	if days > 1 && window%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", days)
	}
	return window.String()
}
