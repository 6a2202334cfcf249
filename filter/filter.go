package filter

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/scipunch/weeklyfeed/config"
	"github.com/scipunch/weeklyfeed/digest"
	"github.com/scipunch/weeklyfeed/fetcher/types"
)

// FilterPipeline applies a series of named filters to feed entries
type FilterPipeline struct {
	filters map[string]*CompiledFilter
	log     *zap.SugaredLogger
}

// CompiledFilter contains compiled regex patterns for efficient matching
type CompiledFilter struct {
	config          config.Filter
	excludePatterns []*regexp.Regexp
}

// NewFilterPipeline creates a new filter pipeline from config.
// Invalid patterns are logged and skipped.
func NewFilterPipeline(filtersConfig map[string]config.Filter, log *zap.SugaredLogger) *FilterPipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	compiled := make(map[string]*CompiledFilter, len(filtersConfig))

	for name, filterCfg := range filtersConfig {
		cf := &CompiledFilter{
			config:          filterCfg,
			excludePatterns: make([]*regexp.Regexp, 0, len(filterCfg.ExcludePatterns)),
		}
		for _, pattern := range filterCfg.ExcludePatterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				log.Warnw("invalid regex pattern in filter", "filter", name, "pattern", pattern, "error", err)
				continue
			}
			cf.excludePatterns = append(cf.excludePatterns, re)
		}
		compiled[name] = cf
	}

	return &FilterPipeline{filters: compiled, log: log}
}

// Apply keeps the entries that pass every named filter, preserving order
func (fp *FilterPipeline) Apply(entries []types.Entry, filterNames []string) []types.Entry {
	if len(filterNames) == 0 {
		return entries
	}

	kept := make([]types.Entry, 0, len(entries))
	for _, entry := range entries {
		include, reason := fp.ShouldInclude(entry, filterNames)
		if !include {
			fp.log.Debugw("entry filtered out", "title", entry.Title, "reason", reason, "url", entry.Link)
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// ShouldInclude returns true if the entry passes all filters in the pipeline.
// The reason names the first filter rule that rejected it.
func (fp *FilterPipeline) ShouldInclude(entry types.Entry, filterNames []string) (bool, string) {
	for _, filterName := range filterNames {
		filter, exists := fp.filters[filterName]
		if !exists {
			fp.log.Warnw("filter not found, skipping", "filter_name", filterName)
			continue
		}

		if shouldInclude, reason := filter.check(entry, filterName); !shouldInclude {
			return false, reason
		}
	}

	return true, ""
}

func (f *CompiledFilter) check(entry types.Entry, filterName string) (bool, string) {
	// Markup is not content
	text := entry.Title + " " + digest.StripTags(entry.Description)

	if f.config.MinLength > 0 && len([]rune(text)) < f.config.MinLength {
		return false, filterName + ":min_length"
	}

	if f.config.MinWords > 0 && countWords(text) < f.config.MinWords {
		return false, filterName + ":min_words"
	}

	for _, pattern := range f.excludePatterns {
		if pattern.MatchString(text) {
			return false, filterName + ":exclude_pattern[" + pattern.String() + "]"
		}
	}

	if f.config.RequireParagraphs && !hasMultipleParagraphs(entry.Description) {
		return false, filterName + ":require_paragraphs"
	}

	return true, ""
}

// countWords counts runs of letters and digits
func countWords(text string) int {
	words := 0
	inWord := false

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if !inWord {
				words++
				inWord = true
			}
		} else {
			inWord = false
		}
	}

	return words
}

// hasMultipleParagraphs reports whether text has at least two non-blank lines
// or at least two <p> elements.
func hasMultipleParagraphs(text string) bool {
	if strings.Count(strings.ToLower(text), "<p") >= 2 {
		return true
	}

	nonEmptyLines := 0
	for _, line := range strings.Split(digest.StripTags(text), "\n") {
		if strings.TrimSpace(line) != "" {
			nonEmptyLines++
		}
	}

	return nonEmptyLines >= 2
}
