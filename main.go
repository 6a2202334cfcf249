package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scipunch/weeklyfeed/config"
	"github.com/scipunch/weeklyfeed/fetcher"
	"github.com/scipunch/weeklyfeed/filter"
	"github.com/scipunch/weeklyfeed/logger"
	"github.com/scipunch/weeklyfeed/newsletter"
)

func main() {
	var (
		cfgPath     string
		outputPath  string
		days        int
		maxChars    int
		writeConfig bool
	)
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&outputPath, "output", "", "digest file to write, overrides output_path")
	flag.IntVar(&days, "days", 0, "recency window in days, overrides window_days")
	flag.IntVar(&maxChars, "max-chars", 0, "per-feed character budget, overrides max_chars")
	flag.BoolVar(&writeConfig, "write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing config is fine, the built-in feed list is used
	conf, err := config.Read(cfgPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to read config with %s", err)
	}
	if err := config.ApplyEnv(ctx, &conf, nil); err != nil {
		log.Fatalf("failed to read environment with %s", err)
	}
	if outputPath != "" {
		conf.OutputPath = outputPath
	}
	if days != 0 {
		conf.WindowDays = days
	}
	if maxChars != 0 {
		conf.MaxChars = maxChars
	}
	if os.Getenv("DEBUG") != "" {
		conf.Log.Level = "debug"
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("invalid config:\n%s", err)
	}

	if writeConfig {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write config with %s", err)
		}
		fmt.Printf("Config written to %s\n", cfgPath)
		return
	}

	zl, err := logger.New(conf.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger with %s", err)
	}
	defer func() { _ = zl.Sync() }()
	l := zl.Sugar().With("run_id", uuid.NewString())

	pipeline := filter.NewFilterPipeline(conf.Filters, l)
	if len(conf.Filters) > 0 {
		l.Infow("initialized filters", "count", len(conf.Filters))
	}

	res, err := newsletter.Run(ctx, conf.EnabledResources(), newsletter.Options{
		Fetcher:  fetcher.NewRSSFetcher(conf.Timeout, conf.UserAgent),
		Filters:  pipeline,
		Window:   conf.Window(),
		MaxChars: conf.MaxChars,
		Progress: os.Stdout,
		Log:      l,
	})
	if err != nil {
		l.Infow("interrupted, exiting without writing output", "error", err)
		return
	}
	if err := res.Errors(); err != nil {
		l.Warnw("some feeds failed", "failed", countFailed(res), "errors", err.Error())
	}

	fmt.Print("\n" + res.Text)

	if err := newsletter.WriteFile(conf.OutputPath, res.Text); err != nil {
		l.Errorw("failed to save digest", zap.Error(err))
		_ = zl.Sync()
		stop()
		os.Exit(1)
	}
	fmt.Printf("\n\nResults saved to %s\n", conf.OutputPath)
	l.Infow("digest written", "path", conf.OutputPath, "feeds", len(res.Digests), "length", len(res.Text))
}

func countFailed(res newsletter.Result) int {
	n := 0
	for _, d := range res.Digests {
		if d.Err != nil {
			n++
		}
	}
	return n
}
