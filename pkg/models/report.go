package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Distribution counts articles per sentiment label.
type Distribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Total is the number of counted records.
func (d Distribution) Total() int { return d.Positive + d.Negative + d.Neutral }

// Add increments the counter for s.
func (d *Distribution) Add(s Sentiment) {
	switch s {
	case SentimentPositive:
		d.Positive++
	case SentimentNegative:
		d.Negative++
	default:
		d.Neutral++
	}
}

// Comparison is one LLM-written contrast between two consecutive articles.
type Comparison struct {
	Comparison string `json:"Comparison"`
	Impact     string `json:"Impact"`
}

const (
	commonWordsKey = "common_words_across_pairs"
	uniqueWordsOn  = "unique_words_in_article_"
)

// TopicOverlap is the pairwise topic analysis of an article list.
// Unique holds one list per input article in input order. A zero value
// represents an empty input and marshals to {}.
type TopicOverlap struct {
	CommonAcrossPairs []string
	Unique            [][]string
}

// Empty reports whether the overlap was computed over zero articles.
func (t TopicOverlap) Empty() bool { return len(t.Unique) == 0 }

// UniqueKey returns the JSON key for the i-th article (0-based).
func UniqueKey(i int) string { return uniqueWordsOn + strconv.Itoa(i+1) }

// MarshalJSON emits common_words_across_pairs followed by
// unique_words_in_article_1..N. Lists are never null.
func (t TopicOverlap) MarshalJSON() ([]byte, error) {
	if t.Empty() {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, commonWordsKey, t.CommonAcrossPairs); err != nil {
		return nil, err
	}
	for i, words := range t.Unique {
		buf.WriteByte(',')
		if err := writeField(&buf, UniqueKey(i), words); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, words []string) error {
	if words == nil {
		words = []string{}
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(words)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. Unique keys may
// arrive in any order; gaps are filled with empty lists.
func (t *TopicOverlap) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = TopicOverlap{}
	if len(raw) == 0 {
		return nil
	}
	t.CommonAcrossPairs = raw[commonWordsKey]
	if t.CommonAcrossPairs == nil {
		t.CommonAcrossPairs = []string{}
	}
	indexes := make([]int, 0, len(raw))
	for key := range raw {
		if !strings.HasPrefix(key, uniqueWordsOn) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, uniqueWordsOn))
		if err != nil || n < 1 {
			return fmt.Errorf("topic overlap: invalid key %q", key)
		}
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)
	if len(indexes) == 0 {
		return nil
	}
	t.Unique = make([][]string, indexes[len(indexes)-1])
	for i := range t.Unique {
		words := raw[UniqueKey(i)]
		if words == nil {
			words = []string{}
		}
		t.Unique[i] = words
	}
	return nil
}

// ArticleSummary is the per-article view embedded in a report.
type ArticleSummary struct {
	Title     string    `json:"Title"`
	Summary   string    `json:"Summary"`
	Sentiment Sentiment `json:"Sentiment"`
	Topics    []string  `json:"Topics"`
}

// Report is the full company news-sentiment report.
type Report struct {
	Company                string           `json:"Company"`
	Articles               []ArticleSummary `json:"Articles"`
	SentimentScore         Distribution     `json:"Comparative Sentiment Score"`
	CoverageDifferences    []Comparison     `json:"Coverage Differences"`
	TopicOverlap           TopicOverlap     `json:"Topic Overlap"`
	FinalSentimentAnalysis string           `json:"Final Sentiment Analysis"`
	Audio                  *string          `json:"Audio"`
	Diagnostics            []string         `json:"Diagnostics,omitempty"`
}

// Summarize projects annotated articles onto the report view.
func Summarize(articles []Article) []ArticleSummary {
	out := make([]ArticleSummary, len(articles))
	for i, a := range articles {
		out[i] = ArticleSummary{
			Title:     a.Title,
			Summary:   a.Summary,
			Sentiment: a.Sentiment,
			Topics:    append([]string{}, a.Topics...),
		}
	}
	return out
}
