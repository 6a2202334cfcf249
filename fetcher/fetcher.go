package fetcher

import (
	"fmt"
	"time"

	"github.com/scipunch/weeklyfeed/fetcher/types"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (RSS Reader)"
)

var _ types.FeedFetcher = (*RSSFetcher)(nil)

// StatusError is returned when a feed responds with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP Error %s", e.Status)
	}
	return fmt.Sprintf("HTTP Error %d", e.StatusCode)
}
