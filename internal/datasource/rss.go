package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// RSS aggregates a Google News search feed for the company and any
// configured feeds, keeping items that mention the company.
type RSS struct {
	googleNewsURL string
	feeds         []string
	fetch         fetcher
	concurrency   int
	max           int
	log           logrus.FieldLogger
}

// feedItem is one parsed entry before filtering.
type feedItem struct {
	article   models.Article
	published time.Time
}

// NewRSS creates the aggregator from cfg.
func NewRSS(cfg config.SourceConfig, log logrus.FieldLogger) *RSS {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RSS{
		googleNewsURL: cfg.GoogleNewsURL,
		feeds:         cfg.Feeds,
		fetch:         newFetcher(cfg),
		concurrency:   concurrency,
		max:           cfg.MaxArticles,
		log:           orDiscard(log),
	}
}

// Name returns the data source name.
func (r *RSS) Name() string { return "RSS" }

// Articles fetches every feed concurrently. Individual feed failures are
// logged and skipped; an error is returned only when every feed failed.
func (r *RSS) Articles(ctx context.Context, company string) ([]models.Article, error) {
	urls := r.feedURLs(company)
	if len(urls) == 0 {
		return []models.Article{}, nil
	}

	var (
		mu       sync.Mutex
		firstErr error
		failed   int
	)
	results := make([][]feedItem, len(urls))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			items, err := r.fetchFeed(ctx, u, i == 0 && r.googleNewsURL != "")
			if err != nil {
				r.log.WithError(err).WithField("feed", u).Warn("feed fetch failed")
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(urls) {
		return nil, fmt.Errorf("all %d feeds failed: %w", failed, firstErr)
	}

	keywords := utils.CompanyKeywords(company)
	seen := make(map[string]bool)
	var merged []feedItem
	for _, items := range results {
		for _, it := range items {
			a := it.article
			if !utils.MentionsAny(a.Title+" "+a.Summary, keywords) {
				continue
			}
			key := a.Link
			if key == "" {
				key = strings.ToLower(a.Title)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, it)
		}
	}

	// Newest first; undated items sink to the end in feed order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].published.After(merged[j].published)
	})

	articles := make([]models.Article, 0, len(merged))
	for _, it := range merged {
		articles = append(articles, it.article)
	}
	return capArticles(articles, r.max), nil
}

func (r *RSS) feedURLs(company string) []string {
	var urls []string
	if r.googleNewsURL != "" {
		q := url.Values{}
		q.Set("q", company)
		q.Set("hl", "en-US")
		q.Set("gl", "US")
		q.Set("ceid", "US:en")
		urls = append(urls, r.googleNewsURL+"?"+q.Encode())
	}
	return append(urls, r.feeds...)
}

// fetchFeed downloads and parses one feed. Google News titles carry the
// publisher as a " - Publisher" suffix, which is split off into Source.
func (r *RSS) fetchFeed(ctx context.Context, feedURL string, googleNews bool) ([]feedItem, error) {
	body, err := r.fetch.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]feedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.Article{
			Link:    item.Link,
			Title:   utils.CollapseSpace(item.Title),
			Source:  feed.Title,
			Summary: cleanHTML(item.Description),
		}
		if googleNews {
			if title, publisher, ok := splitPublisher(a.Title); ok {
				a.Title, a.Source = title, publisher
			}
			// The description only repeats the headline.
			if strings.HasPrefix(a.Summary, a.Title) {
				a.Summary = a.Title
			}
		}
		if item.Author != nil {
			a.Author = item.Author.Name
		}
		it := feedItem{article: a}
		if item.PublishedParsed != nil {
			it.published = *item.PublishedParsed
			it.article.Timestamp = it.published.Format("Jan 2, 2006")
		}
		items = append(items, it)
	}
	return items, nil
}

func splitPublisher(title string) (string, string, bool) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, "", false
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:]), true
}
