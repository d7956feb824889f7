// Package sentiment labels article text as positive, negative or neutral
// from the VADER compound score.
package sentiment

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultThreshold is the compound score needed for a non-neutral label.
const DefaultThreshold = 0.25

// defaultAnalyzer loads the embedded VADER lexicon once.
var defaultAnalyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// Compound scores text in [-1, 1]. Empty text scores 0.
func Compound(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return defaultAnalyzer().PolarityScores(text).Compound
}

// Labeler assigns coarse sentiment labels from the compound score.
type Labeler struct {
	threshold float64
}

// NewLabeler returns a labeler. A non-positive threshold uses
// DefaultThreshold.
func NewLabeler(threshold float64) *Labeler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Labeler{threshold: threshold}
}

// Classify labels one text: compound >= threshold is positive,
// <= -threshold negative, anything else (and empty text) neutral.
func (l *Labeler) Classify(text string) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.SentimentNeutral
	}
	c := Compound(text)
	switch {
	case c >= l.threshold:
		return models.SentimentPositive
	case c <= -l.threshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Label returns a copy of articles with Sentiment set from each summary.
// The input slice is not modified.
func (l *Labeler) Label(articles []models.Article) []models.Article {
	out := models.CloneArticles(articles)
	for i := range out {
		out[i].Sentiment = l.Classify(out[i].Summary)
	}
	return out
}
