// Package coverage asks an LLM to contrast consecutive article pairs and
// to summarise the overall coverage.
package coverage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Placeholder texts substituted when a reply cannot be used.
const (
	ParsingError          = "Parsing error"
	UnableToParse         = "Unable to parse response"
	ComparisonUnavailable = "Comparison unavailable"
	ImpactFailed          = "Impact analysis failed"
	AnalysisFailed        = "Analysis failed"
)

const finalKey = "Final Sentiment Analysis"

var (
	errDecode     = errors.New("reply is not a JSON object")
	errMissingKey = errors.New("reply lacks a string field")
)

// Comparator turns annotated articles into coverage comparisons.
type Comparator struct {
	llm  llm.Provider
	opts *llm.ChatOptions
	log  logrus.FieldLogger
}

// New creates a Comparator on top of an LLM provider, usually the router.
func New(provider llm.Provider, log logrus.FieldLogger) *Comparator {
	return &Comparator{
		llm:  provider,
		opts: &llm.ChatOptions{JSON: true},
		log:  logger.OrDiscard(log),
	}
}

// ComparePairs compares articles (0,1), (2,3), ... A trailing odd article
// is not compared. Fewer than two articles yield no comparisons.
func (c *Comparator) ComparePairs(ctx context.Context, articles []models.Article) []models.Outcome[models.Comparison] {
	if len(articles) < 2 {
		return []models.Outcome[models.Comparison]{}
	}

	out := make([]models.Outcome[models.Comparison], 0, len(articles)/2)
	for k := 0; 2*k+1 < len(articles); k++ {
		out = append(out, c.comparePair(ctx, k, articles[2*k], articles[2*k+1]))
	}
	return out
}

func (c *Comparator) comparePair(ctx context.Context, k int, a, b models.Article) models.Outcome[models.Comparison] {
	log := c.log.WithField("pair", k+1)

	fields, err := c.ask(ctx, pairPrompt(2*k+1, a, b), "Comparison", "Impact")
	switch {
	case errors.Is(err, errDecode):
		log.WithError(err).Warn("comparison reply could not be parsed")
		return models.Degrade(models.Comparison{Comparison: ParsingError, Impact: UnableToParse},
			fmt.Sprintf("coverage pair %d: %v", k+1, err))
	case err != nil:
		log.WithError(err).Warn("comparison failed")
		return models.Degrade(models.Comparison{Comparison: ComparisonUnavailable, Impact: ImpactFailed},
			fmt.Sprintf("coverage pair %d: %v", k+1, err))
	}
	return models.Ok(models.Comparison{Comparison: fields[0], Impact: fields[1]})
}

// FinalSentiment writes the overall narrative from the comparison impacts.
func (c *Comparator) FinalSentiment(ctx context.Context, comparisons []models.Comparison) models.Outcome[string] {
	impacts := make([]string, len(comparisons))
	for i, cmp := range comparisons {
		impacts[i] = cmp.Impact
	}

	fields, err := c.ask(ctx, finalPrompt(strings.Join(impacts, "\n")), finalKey)
	switch {
	case errors.Is(err, errDecode):
		c.log.WithError(err).Warn("final sentiment reply could not be parsed")
		return models.Degrade(ParsingError, "final sentiment: "+err.Error())
	case err != nil:
		c.log.WithError(err).Warn("final sentiment failed")
		return models.Degrade(AnalysisFailed, "final sentiment: "+err.Error())
	}
	return models.Ok(fields[0])
}

// ask sends one prompt and returns the whitespace-collapsed string values
// of keys, in order.
func (c *Comparator) ask(ctx context.Context, prompt string, keys ...string) ([]string, error) {
	if c.llm == nil {
		return nil, llm.ErrNoProviders
	}
	resp, err := c.llm.Chat(ctx, []llm.Message{llm.UserMessage(prompt)}, c.opts)
	if err != nil {
		return nil, err
	}
	return decodeFields(resp.Content, keys...)
}

func decodeFields(reply string, keys ...string) ([]string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(reply)), &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: %q", errDecode, utils.Truncate(reply, 80))
	}

	vals := make([]string, len(keys))
	for i, key := range keys {
		s, ok := obj[key].(string)
		if !ok {
			return nil, fmt.Errorf("%w %q", errMissingKey, key)
		}
		vals[i] = utils.CollapseSpace(s)
	}
	return vals, nil
}

// cleanJSON strips markdown fences, a leading json marker and any prose
// around the outermost object.
func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
