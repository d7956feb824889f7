package models

import "strings"

// Sentiment is the coarse polarity label attached to an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment folds s case-insensitively. Anything that is not
// "positive" or "negative" is neutral.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SentimentPositive):
		return SentimentPositive
	case string(SentimentNegative):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Article is one news item about a company. Sentiment is empty until the
// labeler has run, Topics is nil until the tagger has run.
type Article struct {
	Link      string    `json:"link,omitempty"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Author    string    `json:"author,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Topics    []string  `json:"topics,omitempty"`
}

// HasSentiment reports whether the article has been labeled.
func (a Article) HasSentiment() bool { return a.Sentiment != "" }

// HasTopics reports whether the tagger produced a topic list.
func (a Article) HasTopics() bool { return a.Topics != nil }

// Clone returns a deep copy so a stage can annotate it without touching
// the input slice.
func (a Article) Clone() Article {
	if a.Topics != nil {
		a.Topics = append([]string(nil), a.Topics...)
	}
	return a
}

// CloneArticles copies a whole article list.
func CloneArticles(in []Article) []Article {
	out := make([]Article, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
