// Package datasource fetches recent news articles about a company.
// Two sources are implemented: a New York Times search page scraper and
// an RSS / Atom aggregator seeded with a Google News search feed.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ArticleSource returns recent articles that mention a company.
type ArticleSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// Articles fetches articles about company. A transport failure is
	// returned as an error; callers decide whether to degrade.
	Articles(ctx context.Context, company string) ([]models.Article, error)
}

// New builds the source selected by cfg.Provider.
func New(cfg config.SourceConfig, log logrus.FieldLogger) (ArticleSource, error) {
	switch cfg.Provider {
	case "nytimes":
		return NewNYTimes(cfg, log), nil
	case "rss":
		return NewRSS(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown article source %q", cfg.Provider)
	}
}

// fetcher performs GET requests with the configured user agent and timeout.
type fetcher struct {
	client    *http.Client
	userAgent string
}

func newFetcher(cfg config.SourceConfig) fetcher {
	return fetcher{
		client:    &http.Client{Timeout: cfg.Timeout()},
		userAgent: cfg.UserAgent,
	}
}

// get returns the response body. The caller closes it.
func (f fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &infra.ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	return resp.Body, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func capArticles(articles []models.Article, max int) []models.Article {
	if max > 0 && len(articles) > max {
		return articles[:max]
	}
	return articles
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger { return logger.OrDiscard(log) }
