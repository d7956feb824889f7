package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/analysis/topics"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/coverage"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/speech"
)

// app holds the wired pipeline shared by the serve and report commands.
type app struct {
	log     *logrus.Logger
	router  *llm.Router
	cache   infra.ReportCache
	builder *report.Builder
}

// newApp builds every component from cfg. Extra options are appended to
// the builder's.
func newApp(ctx context.Context, cfg *config.Config, extra ...report.Option) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	source, err := datasource.New(cfg.Source, log)
	if err != nil {
		return nil, fmt.Errorf("article source: %w", err)
	}

	router, err := llm.NewRouterFromConfig(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	if len(router.ProviderNames()) == 0 {
		log.Warn("no LLM API key configured; coverage comparisons will be unavailable")
	}

	cache, err := infra.NewReportCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("report cache: %w", err)
	}

	opts := []report.Option{report.WithLogger(log)}
	if cache != nil {
		opts = append(opts, report.WithCache(cache))
	}
	if cfg.Audio.Enabled {
		conv, err := speech.NewConverter(cfg.Audio, log)
		if err != nil {
			if cache != nil {
				_ = cache.Close()
			}
			return nil, fmt.Errorf("audio: %w", err)
		}
		opts = append(opts, report.WithAudio(conv))
	}
	opts = append(opts, extra...)

	builder := report.NewBuilder(
		source,
		sentiment.NewLabeler(cfg.Analysis.SentimentThreshold),
		topics.NewExtractor(cfg.Analysis.NumTopics),
		coverage.New(router, log),
		opts...,
	)

	return &app{log: log, router: router, cache: cache, builder: builder}, nil
}

// Close releases the cache connection.
func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
