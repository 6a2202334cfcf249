package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"github.com/sethvargo/go-envconfig"

	"github.com/scipunch/weeklyfeed/digest"
	"github.com/scipunch/weeklyfeed/fetcher"
	"github.com/scipunch/weeklyfeed/fetcher/types"
	"github.com/scipunch/weeklyfeed/logger"
)

const (
	baseCfgPath = "weeklyfeed/config.toml"
	envPrefix   = "WEEKLYFEED_"

	defaultWindowDays = 7
	defaultOutputPath = "weekly_news.txt"
)

type Config struct {
	Resources  []types.Source    `toml:"resources"`
	WindowDays int               `toml:"window_days" env:"WINDOW_DAYS"` // How many days back an entry counts as recent
	MaxChars   int               `toml:"max_chars" env:"MAX_CHARS"`     // Per-feed digest budget in characters
	OutputPath string            `toml:"output_path" env:"OUTPUT"`      // Digest file, overwritten on every run
	UserAgent  string            `toml:"user_agent" env:"USER_AGENT"`
	Timeout    time.Duration     `toml:"timeout" env:"TIMEOUT"`
	Filters    map[string]Filter `toml:"filters"` // Named filters that can be referenced by resources
	Log        logger.Config     `toml:"log"`
}

// Filter defines rules for filtering feed entries
type Filter struct {
	MinLength         int      `toml:"min_length"`         // Minimum character count (0 = no limit)
	MinWords          int      `toml:"min_words"`          // Minimum word count (0 = no limit)
	ExcludePatterns   []string `toml:"exclude_patterns"`   // Regex patterns to exclude
	RequireParagraphs bool     `toml:"require_paragraphs"` // Must have multiple lines/paragraphs
}

// Window returns the recency window as a duration
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// EnabledResources returns the resources that should be processed, in order
func (c Config) EnabledResources() []types.Source {
	return lo.Filter(c.Resources, func(r types.Source, _ int) bool {
		return r.IsEnabled()
	})
}

// Validate reports every problem with the configuration at once
func (c Config) Validate() error {
	var errs []error

	enabled := c.EnabledResources()
	if len(enabled) == 0 {
		errs = append(errs, errors.New("no enabled resources"))
	}
	for _, r := range c.Resources {
		u, err := url.Parse(r.URL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, fmt.Errorf("resource '%s' must be an absolute https URL", r.URL))
		}
		for _, name := range r.Filters {
			if _, ok := c.Filters[name]; !ok {
				errs = append(errs, fmt.Errorf("resource '%s' references unknown filter '%s'", r.URL, name))
			}
		}
	}
	urls := lo.Map(c.Resources, func(r types.Source, _ int) string { return r.URL })
	for _, dup := range lo.FindDuplicates(urls) {
		errs = append(errs, fmt.Errorf("resource '%s' is listed more than once", dup))
	}

	if c.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("window_days must be positive, got %d", c.WindowDays))
	}
	if c.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("max_chars must be positive, got %d", c.MaxChars))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output_path is empty"))
	}

	return errors.Join(errs...)
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	// Resources listed in the file replace the built-in list rather than extend it
	conf.Resources = nil
	md, err := toml.Decode(string(dat), &conf)
	if err != nil {
		return Default(), fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if !md.IsDefined("resources") {
		conf.Resources = DefaultSources()
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	return nil
}

// ApplyEnv overlays WEEKLYFEED_* variables found through l onto cfg
func ApplyEnv(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	if l == nil {
		l = envconfig.OsLookuper()
	}
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(envPrefix, l),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply environment with %w", err)
	}
	return nil
}

func Default() Config {
	return Config{
		Resources:  DefaultSources(),
		WindowDays: defaultWindowDays,
		MaxChars:   digest.DefaultMaxChars,
		OutputPath: defaultOutputPath,
		UserAgent:  fetcher.DefaultUserAgent,
		Timeout:    fetcher.DefaultTimeout,
		Filters:    map[string]Filter{},
		Log:        logger.Config{Level: "info"},
	}
}

// DefaultSources returns a fresh copy of the built-in feed list
func DefaultSources() []types.Source {
	return []types.Source{
		{URL: "https://www.latent.space/feed"},
		{URL: "https://simonwillison.net/atom/entries/"},
		{URL: "https://blog.pragmaticengineer.com/rss/"},
		{URL: "https://www.swyx.io/rss.xml"},
		{URL: "https://github.blog/changelog/feed/"},
		{URL: "https://openai.com/news/rss.xml"},
		{URL: "https://raw.githubusercontent.com/Olshansk/rss-feeds/main/feeds/feed_anthropic_research.xml"},
		{URL: "https://www.reddit.com/r/ClaudeAI.rss"},
		{URL: "https://www.reddit.com/r/AI_Agents.rss"},
		{URL: "https://github.blog/changelog/label/copilot/"},
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	return ""
}
