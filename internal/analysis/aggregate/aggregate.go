// Package aggregate computes the report's cross-article figures: the
// sentiment distribution and the pairwise topic overlap. Every function
// is pure and safe for concurrent use.
package aggregate

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Distribution counts articles per label. Comparison folds case; an empty
// or unknown label counts as neutral.
func Distribution(articles []models.Article) models.Distribution {
	var d models.Distribution
	for _, a := range articles {
		d.Add(models.ParseSentiment(string(a.Sentiment)))
	}
	return d
}

// DistributionFromRecords counts loosely typed JSON records. A record
// without a sentiment field counts as neutral. Records that are not
// objects, or whose sentiment is not a string, are logged and skipped.
func DistributionFromRecords(records []any, log logrus.FieldLogger) models.Distribution {
	log = logger.OrDiscard(log)
	var d models.Distribution
	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			log.WithField("record", i).Warn("skipping non-object record")
			continue
		}
		raw, present := obj["sentiment"]
		if !present {
			d.Add(models.SentimentNeutral)
			continue
		}
		s, ok := raw.(string)
		if !ok {
			log.WithField("record", i).Warnf("skipping record with %T sentiment", raw)
			continue
		}
		d.Add(models.ParseSentiment(s))
	}
	return d
}

// topicSet is one article's topics prepared for comparison.
type topicSet struct {
	original []string
	folded   map[string]bool
	casing   map[string]string // first occurrence wins
}

func newTopicSet(topics []string) topicSet {
	ts := topicSet{
		original: topics,
		folded:   make(map[string]bool, len(topics)),
		casing:   make(map[string]string, len(topics)),
	}
	for _, t := range topics {
		f := strings.ToLower(t)
		ts.folded[f] = true
		if _, ok := ts.casing[f]; !ok {
			ts.casing[f] = t
		}
	}
	return ts
}

// Overlap compares topics within consecutive pairs (0,1), (2,3), ... and
// finds, for every article, the topics no other article mentions.
func Overlap(articles []models.Article) models.TopicOverlap {
	sets := make([]topicSet, len(articles))
	for i, a := range articles {
		sets[i] = newTopicSet(a.Topics)
	}
	return overlap(sets)
}

// OverlapFromRecords is Overlap over loosely typed JSON records. A missing
// or non-list topics field is an empty topic list; non-string entries in a
// list are logged and dropped.
func OverlapFromRecords(records []any, log logrus.FieldLogger) models.TopicOverlap {
	log = logger.OrDiscard(log)
	sets := make([]topicSet, len(records))
	for i, rec := range records {
		var topics []string
		if obj, ok := rec.(map[string]any); ok {
			if list, ok := obj["topics"].([]any); ok {
				for j, item := range list {
					s, ok := item.(string)
					if !ok {
						log.WithFields(logrus.Fields{"record": i, "topic": j}).Warnf("dropping %T topic", item)
						continue
					}
					topics = append(topics, s)
				}
			}
		} else {
			log.WithField("record", i).Warn("non-object record has no topics")
		}
		sets[i] = newTopicSet(topics)
	}
	return overlap(sets)
}

func overlap(sets []topicSet) models.TopicOverlap {
	if len(sets) == 0 {
		return models.TopicOverlap{}
	}

	common := []string{}
	for k := 0; 2*k+1 < len(sets); k++ {
		first, second := sets[2*k], sets[2*k+1]
		emitted := make(map[string]bool)
		for _, t := range first.original {
			f := strings.ToLower(t)
			if !second.folded[f] || emitted[f] {
				continue
			}
			emitted[f] = true
			common = append(common, first.casing[f])
		}
	}

	// holders[f] is the number of articles whose set contains f.
	holders := make(map[string]int)
	for _, s := range sets {
		for f := range s.folded {
			holders[f]++
		}
	}

	unique := make([][]string, len(sets))
	for i, s := range sets {
		words := []string{}
		for _, t := range s.original {
			if holders[strings.ToLower(t)] == 1 {
				words = append(words, t)
			}
		}
		unique[i] = words
	}

	return models.TopicOverlap{CommonAcrossPairs: common, Unique: unique}
}
