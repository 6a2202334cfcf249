package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scipunch/weeklyfeed/fetcher/types"
)

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.Len(t, sources, 10)

	seen := make(map[string]bool)
	for _, s := range sources {
		assert.NotEmpty(t, s.URL)
		assert.True(t, strings.HasPrefix(s.URL, "https://"), s.URL)
		assert.False(t, seen[s.URL], "duplicate %s", s.URL)
		seen[s.URL] = true
		assert.True(t, s.IsEnabled())
	}
}

func TestDefaultSources_IsACopy(t *testing.T) {
	first := DefaultSources()
	first[0].URL = "https://mutated.example.com"

	assert.NotEqual(t, first[0].URL, DefaultSources()[0].URL)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7*24*time.Hour, cfg.Window())
	assert.Equal(t, 100000, cfg.MaxChars)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "weekly_news.txt", cfg.OutputPath)
}

func TestValidate(t *testing.T) {
	disabled := false
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "http url",
			mutate:  func(c *Config) { c.Resources[0].URL = "http://example.com/feed" },
			wantErr: "must be an absolute https URL",
		},
		{
			name:    "duplicate url",
			mutate:  func(c *Config) { c.Resources[1].URL = c.Resources[0].URL },
			wantErr: "listed more than once",
		},
		{
			name:    "unknown filter",
			mutate:  func(c *Config) { c.Resources[0].Filters = []string{"nope"} },
			wantErr: "unknown filter 'nope'",
		},
		{
			name: "all disabled",
			mutate: func(c *Config) {
				for i := range c.Resources {
					c.Resources[i].Enabled = &disabled
				}
			},
			wantErr: "no enabled resources",
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.WindowDays = 0 },
			wantErr: "window_days must be positive",
		},
		{
			name:    "negative max chars",
			mutate:  func(c *Config) { c.MaxChars = -1 },
			wantErr: "max_chars must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnabledResources(t *testing.T) {
	disabled := false
	cfg := Default()
	cfg.Resources[3].Enabled = &disabled

	enabled := cfg.EnabledResources()
	assert.Len(t, enabled, 9)
	for _, r := range enabled {
		assert.NotEqual(t, cfg.Resources[3].URL, r.URL)
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	blob := `
window_days = 3
max_chars = 2000
timeout = "5s"

[[resources]]
url = "https://example.com/feed.xml"
filters = ["long"]

[[resources]]
url = "https://example.com/atom.xml"
enabled = false

[filters.long]
min_words = 20
`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0644))

	cfg, err := Read(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.WindowDays)
	assert.Equal(t, 2000, cfg.MaxChars)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "weekly_news.txt", cfg.OutputPath)
	require.Len(t, cfg.Resources, 2)
	assert.Equal(t, []string{"long"}, cfg.Resources[0].Filters)
	assert.False(t, cfg.Resources[1].IsEnabled())
	assert.Equal(t, 20, cfg.Filters["long"].MinWords)
}

func TestRead_KeepsDefaultSourcesWhenOmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`output_path = "digest.txt"`), 0644))

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSources(), cfg.Resources)
	assert.Equal(t, "digest.txt", cfg.OutputPath)
}

func TestRead_Missing(t *testing.T) {
	cfg, err := Read(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, Default(), cfg)
}

func TestRead_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`window_days = "seven`), 0644))

	_, err := Read(path)
	assert.Error(t, err)
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Filters["short"] = Filter{MinLength: 50}

	require.NoError(t, Write(path, cfg))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Resources, got.Resources)
	assert.Equal(t, cfg.Timeout, got.Timeout)
	assert.Equal(t, 50, got.Filters["short"].MinLength)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	l := envconfig.MapLookuper(map[string]string{
		"WEEKLYFEED_OUTPUT":      "/tmp/digest.txt",
		"WEEKLYFEED_WINDOW_DAYS": "14",
		"WEEKLYFEED_TIMEOUT":     "30s",
		"WEEKLYFEED_LOG_LEVEL":   "debug",
		"OUTPUT":                 "/ignored/without/prefix",
	})

	require.NoError(t, ApplyEnv(context.Background(), &cfg, l))

	assert.Equal(t, "/tmp/digest.txt", cfg.OutputPath)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100000, cfg.MaxChars)
	assert.Len(t, cfg.Resources, 10)
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := Default()
	l := envconfig.MapLookuper(map[string]string{"WEEKLYFEED_MAX_CHARS": "lots"})

	assert.Error(t, ApplyEnv(context.Background(), &cfg, l))
}

func TestSourceIsEnabled(t *testing.T) {
	on, off := true, false
	assert.True(t, types.Source{}.IsEnabled())
	assert.True(t, types.Source{Enabled: &on}.IsEnabled())
	assert.False(t, types.Source{Enabled: &off}.IsEnabled())
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/weeklyfeed/config.toml", DefaultPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/reader")
	assert.Equal(t, "/home/reader/.config/weeklyfeed/config.toml", DefaultPath())
}
