package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// nytBusinessSection restricts the search to the Business desk.
const nytBusinessSection = "Business|nyt://section/0415b2b0-513a-5e78-80da-21ab770cb753"

// Result card selectors on the search page.
const (
	nytTitle     = "h4.css-nsjm9t"
	nytSummary   = "p.css-e5tzus"
	nytSource    = "span.css-chk81a"
	nytAuthor    = "p.css-1engk30"
	nytTimestamp = "span.css-1t2tqhf"
)

// NYTimes scrapes the New York Times site search.
type NYTimes struct {
	searchURL string
	fetch     fetcher
	max       int
	log       logrus.FieldLogger
}

// NewNYTimes creates the scraper. cfg.NYTimesURL is the search page.
func NewNYTimes(cfg config.SourceConfig, log logrus.FieldLogger) *NYTimes {
	return &NYTimes{
		searchURL: cfg.NYTimesURL,
		fetch:     newFetcher(cfg),
		max:       cfg.MaxArticles,
		log:       orDiscard(log),
	}
}

// Name returns the data source name.
func (n *NYTimes) Name() string { return "New York Times" }

// Articles fetches the search page for company and parses its result cards.
func (n *NYTimes) Articles(ctx context.Context, company string) ([]models.Article, error) {
	u := n.queryURL(company)
	body, err := n.fetch.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("nytimes search: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse nytimes search: %w", err)
	}

	articles := parseNYTimes(doc, n.searchURL)
	n.log.WithFields(logrus.Fields{"company": company, "count": len(articles)}).Debug("nytimes search parsed")
	return capArticles(articles, n.max), nil
}

func (n *NYTimes) queryURL(company string) string {
	q := url.Values{}
	q.Set("dropmab", "false")
	q.Set("lang", "en")
	q.Set("query", company)
	q.Set("sections", nytBusinessSection)
	q.Set("sort", "best")
	q.Set("types", "article")
	return n.searchURL + "?" + q.Encode()
}

// parseNYTimes turns every anchor that carries a result title into an
// article. Anchors without a title are navigation and are skipped.
func parseNYTimes(doc *goquery.Document, base string) []models.Article {
	baseURL, _ := url.Parse(base)
	articles := []models.Article{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := selText(a, nytTitle)
		if title == "" {
			return
		}
		href, _ := a.Attr("href")
		articles = append(articles, models.Article{
			Link:      resolveLink(baseURL, href),
			Title:     title,
			Summary:   selText(a, nytSummary),
			Source:    selText(a, nytSource),
			Author:    selText(a, nytAuthor),
			Timestamp: nytTimestampText(a),
		})
	})
	return articles
}

func selText(s *goquery.Selection, selector string) string {
	return utils.CollapseSpace(s.Find(selector).First().Text())
}

// nytTimestampText reads the node right after the timestamp label,
// e.g. "Jan. 2, 2025, 10:00 a.m. ET" becomes "Jan. 2, 2025".
func nytTimestampText(a *goquery.Selection) string {
	label := a.Find(nytTimestamp).First()
	if label.Length() == 0 {
		return ""
	}
	next := label.Get(0).NextSibling
	if next == nil {
		return ""
	}
	raw := strings.TrimSpace(goquery.NewDocumentFromNode(next).Text())
	if raw == "" {
		return ""
	}
	return utils.FirstParts(raw, ",", 2)
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
