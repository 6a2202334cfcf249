// Package pubdate turns the date strings found in RSS and Atom documents
// into comparable, zone-aware times.
//
// Two families are understood: RFC 2822 (RSS pubDate) and ISO 8601 with a
// literal T separator (Atom published/updated). Anything else is rejected.
package pubdate

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// obsoleteZones maps the RFC 2822 obs-zone names to numeric offsets.
// net/mail only knows the ones the local zone database happens to carry.
var obsoleteZones = map[string]string{
	"UT":  "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var (
	offsetSuffix = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
	}
	zonedLayouts = []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04-07:00",
	}

	errNoSeparator = errors.New("missing date/time separator")
)

// Parse returns the instant described by s and true, or the zero time and
// false when s is empty or not in a recognised format. It never panics.
func Parse(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	if t, err := parseRFC2822(s); err == nil {
		return t, true
	}
	if t, err := parseISO8601(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseRFC2822(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		if offset, ok := obsoleteZones[strings.ToUpper(s[i+1:])]; ok {
			s = s[:i+1] + offset
		}
	}
	return mail.ParseDate(s)
}

func parseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "T") {
		return time.Time{}, errNoSeparator
	}

	switch {
	case strings.HasSuffix(s, "Z"):
		return parseNaive(strings.TrimRight(s, "Z"))
	case offsetSuffix.MatchString(s):
		return parseLayouts(s, zonedLayouts)
	default:
		return parseNaive(s)
	}
}

// parseNaive parses a timestamp without zone information as UTC.
func parseNaive(s string) (time.Time, error) {
	return parseLayouts(s, naiveLayouts)
}

func parseLayouts(s string, layouts []string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
