package report

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/analysis/aggregate"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// ErrEmptyCompany is returned for a blank company name.
var ErrEmptyCompany = errors.New("report: company name is empty")

// Pipeline stage names reported to observers.
const (
	StageFetch     = "fetch"
	StageSentiment = "sentiment"
	StageTopics    = "topics"
	StageAggregate = "aggregate"
	StageCompare   = "compare"
	StageFinal     = "final_sentiment"
	StageAudio     = "audio"
	StageComplete  = "complete"
)

// Labeler annotates articles with a sentiment label.
type Labeler interface {
	Label(articles []models.Article) []models.Article
}

// Tagger annotates articles with topics.
type Tagger interface {
	Tag(articles []models.Article) []models.Article
}

// Comparator writes the LLM coverage comparisons.
type Comparator interface {
	ComparePairs(ctx context.Context, articles []models.Article) []models.Outcome[models.Comparison]
	FinalSentiment(ctx context.Context, comparisons []models.Comparison) models.Outcome[string]
}

// AudioConverter speaks the final narrative.
type AudioConverter interface {
	Convert(ctx context.Context, text, company string) models.Outcome[string]
}

// Observer receives pipeline progress. It must not block.
type Observer func(company, stage string)

// Builder assembles reports from the pipeline stages.
type Builder struct {
	source     datasource.ArticleSource
	labeler    Labeler
	tagger     Tagger
	comparator Comparator
	audio      AudioConverter
	cache      infra.ReportCache
	observer   Observer
	log        logrus.FieldLogger
}

// Option configures a Builder.
type Option func(*Builder)

// WithAudio enables the speech stage.
func WithAudio(a AudioConverter) Option {
	return func(b *Builder) { b.audio = a }
}

// WithCache serves and stores finished reports through c.
func WithCache(c infra.ReportCache) Option {
	return func(b *Builder) { b.cache = c }
}

// WithObserver registers a progress callback.
func WithObserver(o Observer) Option {
	return func(b *Builder) { b.observer = o }
}

// WithLogger sets the builder logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) { b.log = log }
}

// NewBuilder wires the required stages.
func NewBuilder(source datasource.ArticleSource, labeler Labeler, tagger Tagger, comparator Comparator, opts ...Option) *Builder {
	b := &Builder{
		source:     source,
		labeler:    labeler,
		tagger:     tagger,
		comparator: comparator,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logger.OrDiscard(b.log)
	return b
}

// Build runs the pipeline for company. Stage failures degrade the report
// and are listed in its diagnostics; only a cancelled context is returned
// as an error.
func (b *Builder) Build(ctx context.Context, company string) (*models.Report, error) {
	company = utils.NormalizeCompany(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	log := b.log.WithField("company", company)

	if b.cache != nil {
		cached, ok, err := b.cache.Get(ctx, company)
		switch {
		case err != nil:
			log.WithError(err).Warn("report cache read failed")
		case ok && !audioExists(cached):
			log.Debug("cached report audio is gone, rebuilding")
		case ok:
			log.Debug("report served from cache")
			cached.Company = company
			b.notify(company, StageComplete)
			return cached, nil
		}
	}

	rep := &models.Report{
		Company:             company,
		Articles:            []models.ArticleSummary{},
		CoverageDifferences: []models.Comparison{},
	}
	var diagnostics []string

	b.notify(company, StageFetch)
	articles, err := b.source.Articles(ctx, company)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(err).WithField("stage", StageFetch).Warn("article source failed")
		diagnostics = append(diagnostics, fmt.Sprintf("%s: %s: %v", StageFetch, b.source.Name(), err))
		articles = nil
	}
	log.WithField("articles", len(articles)).Info("articles fetched")

	b.notify(company, StageSentiment)
	articles = b.labeler.Label(articles)

	b.notify(company, StageTopics)
	articles = b.tagger.Tag(articles)

	b.notify(company, StageAggregate)
	rep.Articles = models.Summarize(articles)
	rep.SentimentScore = aggregate.Distribution(articles)
	rep.TopicOverlap = aggregate.Overlap(articles)

	b.notify(company, StageCompare)
	comparisons := b.comparator.ComparePairs(ctx, articles)
	for _, c := range comparisons {
		if c.Degraded {
			diagnostics = append(diagnostics, c.Reason)
		}
	}
	rep.CoverageDifferences = models.Values(comparisons)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.notify(company, StageFinal)
	final := b.comparator.FinalSentiment(ctx, rep.CoverageDifferences)
	if final.Degraded {
		diagnostics = append(diagnostics, final.Reason)
	}
	rep.FinalSentimentAnalysis = final.Value
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.audio != nil {
		b.notify(company, StageAudio)
		audio := b.audio.Convert(ctx, rep.FinalSentimentAnalysis, company)
		if audio.Degraded {
			diagnostics = append(diagnostics, audio.Reason)
		} else if audio.Value != "" {
			path := audio.Value
			rep.Audio = &path
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	rep.Diagnostics = diagnostics

	if b.cache != nil && len(diagnostics) == 0 {
		if err := b.cache.Put(ctx, company, rep); err != nil {
			log.WithError(err).Warn("report cache write failed")
		}
	}

	b.notify(company, StageComplete)
	log.WithFields(logrus.Fields{
		"positive":    rep.SentimentScore.Positive,
		"negative":    rep.SentimentScore.Negative,
		"neutral":     rep.SentimentScore.Neutral,
		"diagnostics": len(diagnostics),
	}).Info("report built")
	return rep, nil
}

func (b *Builder) notify(company, stage string) {
	if b.observer != nil {
		b.observer(company, stage)
	}
}

// audioExists reports whether the report's audio file, if any, is still on
// disk.
func audioExists(r *models.Report) bool {
	if r.Audio == nil {
		return true
	}
	_, err := os.Stat(*r.Audio)
	return err == nil
}
