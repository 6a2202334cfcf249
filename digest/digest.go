// Package digest renders feed entries into the plain-text digest format.
//
// A digest is a header block followed by one block per entry:
//
//	Title: ...
//	Date: YYYY-MM-DD HH:MM
//	Link: ...
//	Description: ...        (only when non-empty)
//	----------------------------------------
//
// All lengths are measured in characters (runes), not bytes.
package digest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/scipunch/weeklyfeed/fetcher/types"
)

// DefaultMaxChars is the per-feed digest budget
const DefaultMaxChars = 100000

const dateLayout = "2006-01-02 15:04"

var (
	headerRule = strings.Repeat("=", 80)
	entryRule  = strings.Repeat("-", 40)

	// Best-effort markup removal; nested or malformed tags may leave residue.
	tagPattern = regexp.MustCompile(`<[^>]+>`)
)

// StripTags removes everything that looks like an HTML tag
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Format renders the digest of one feed, never longer than maxChars characters.
// Entries that do not fit are dropped whole and replaced with a truncation marker.
func Format(feedURL string, entries []types.Entry, maxChars int) string {
	var out strings.Builder
	fmt.Fprintf(&out, "\n%s\n", headerRule)
	fmt.Fprintf(&out, "Feed: %s\n", feedURL)
	fmt.Fprintf(&out, "Entries found: %d\n", len(entries))
	fmt.Fprintf(&out, "%s\n\n", headerRule)
	length := utf8.RuneCountInString(out.String())

	for _, entry := range entries {
		block := renderEntry(entry)
		blockLen := utf8.RuneCountInString(block)
		if length+blockLen > maxChars {
			fmt.Fprintf(&out, "\n[Output truncated at %d characters]\n", maxChars)
			break
		}
		out.WriteString(block)
		length += blockLen
	}

	return truncate(out.String(), maxChars)
}

// Join concatenates per-feed digests separated by a blank line
func Join(digests []string) string {
	return strings.Join(digests, "\n\n")
}

func renderEntry(entry types.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", entry.Title)
	fmt.Fprintf(&b, "Date: %s\n", formatDate(entry))
	fmt.Fprintf(&b, "Link: %s\n", entry.Link)
	if entry.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", StripTags(entry.Description))
	}
	fmt.Fprintf(&b, "%s\n\n", entryRule)
	return b.String()
}

func formatDate(entry types.Entry) string {
	if entry.PublishedAt.IsZero() {
		return ""
	}
	return entry.PublishedAt.Format(dateLayout)
}

func truncate(s string, maxChars int) string {
	if maxChars < 0 {
		maxChars = 0
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	return string([]rune(s)[:maxChars])
}
