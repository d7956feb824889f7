// Package topics extracts a few short topic phrases from an article
// summary: named entities first, then nouns, topped up with the highest
// weighted uni- and bigrams when the text is sparse.
package topics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"

	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// DefaultCount is the number of topics kept per article.
const DefaultCount = 3

var termRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// entityLabels are the named entity classes kept as topics.
var entityLabels = map[string]bool{
	"ORG":     true,
	"PERSON":  true,
	"GPE":     true,
	"PRODUCT": true,
}

// Extractor tags articles with topics.
type Extractor struct {
	count int
}

// NewExtractor returns an extractor keeping count topics per summary.
// A non-positive count uses DefaultCount.
func NewExtractor(count int) *Extractor {
	if count <= 0 {
		count = DefaultCount
	}
	return &Extractor{count: count}
}

// Extract returns up to count capitalised topics for summary, or nil when
// the text has no usable words.
func (e *Extractor) Extract(summary string) []string {
	if strings.TrimSpace(summary) == "" {
		return nil
	}

	var candidates []string
	if doc, err := prose.NewDocument(summary, prose.WithSegmentation(false)); err == nil {
		candidates = append(entities(doc), nouns(doc)...)
	}
	candidates = dedupe(candidates, false)

	if len(candidates) < e.count {
		candidates = append(candidates, topTerms(summary, e.count)...)
	}

	candidates = dedupe(candidates, true)
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > e.count {
		candidates = candidates[:e.count]
	}
	for i, c := range candidates {
		candidates[i] = utils.Capitalize(c)
	}
	return candidates
}

// Tag returns a copy of articles with Topics set. Articles with an empty
// summary pass through untouched.
func (e *Extractor) Tag(articles []models.Article) []models.Article {
	out := models.CloneArticles(articles)
	for i := range out {
		if out[i].Summary == "" {
			continue
		}
		if topics := e.Extract(out[i].Summary); topics != nil {
			out[i].Topics = topics
		}
	}
	return out
}

func entities(doc *prose.Document) []string {
	var out []string
	for _, ent := range doc.Entities() {
		if entityLabels[ent.Label] {
			out = append(out, ent.Text)
		}
	}
	return out
}

// nouns keeps common and proper nouns longer than two runes that are not
// stopwords.
func nouns(doc *prose.Document) []string {
	var out []string
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		folded := strings.ToLower(tok.Text)
		if utf8.RuneCountInString(folded) <= 2 || !strings.ContainsFunc(folded, unicode.IsLetter) {
			continue
		}
		if stopwords[folded] {
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

// topTerms ranks the folded unigrams and bigrams of a single document by
// normalised term frequency. Ties go to the lexically greater term.
func topTerms(text string, n int) []string {
	var words []string
	for _, w := range termRe.FindAllString(strings.ToLower(text), -1) {
		if !stopwords[w] {
			words = append(words, w)
		}
	}

	counts := make(map[string]int)
	for i, w := range words {
		counts[w]++
		if i+1 < len(words) {
			counts[w+" "+words[i+1]]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] > terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// dedupe keeps the first occurrence of each entry, comparing folded forms
// when fold is set.
func dedupe(items []string, fold bool) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, it := range items {
		key := it
		if fold {
			key = strings.ToLower(it)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
