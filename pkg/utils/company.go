package utils

import (
	"strings"
	"unicode"
)

// companyAliases maps a folded company name to extra search keywords.
var companyAliases = map[string][]string{
	"alphabet":          {"google"},
	"google":            {"alphabet"},
	"meta":              {"facebook", "meta platforms"},
	"facebook":          {"meta platforms"},
	"tesla":             {"elon musk"},
	"microsoft":         {"msft"},
	"amazon":            {"aws"},
	"apple":             {"iphone"},
	"nvidia":            {"nvda"},
	"reliance":          {"reliance industries", "ril"},
	"tata motors":       {"jaguar land rover"},
	"infosys":           {"infy"},
	"berkshire":         {"berkshire hathaway"},
	"jpmorgan":          {"jpmorgan chase", "jp morgan"},
	"openai":            {"chatgpt"},
	"twitter":           {"x corp"},
	"johnson & johnson": {"j&j"},
}

// NormalizeCompany trims a user supplied company name and collapses
// internal whitespace.
func NormalizeCompany(name string) string {
	return CollapseSpace(name)
}

// CompanyKeywords returns folded keywords that identify articles about
// the company, the name itself first.
func CompanyKeywords(name string) []string {
	folded := strings.ToLower(NormalizeCompany(name))
	if folded == "" {
		return nil
	}
	keywords := []string{folded}
	keywords = append(keywords, companyAliases[folded]...)
	return keywords
}

// MentionsAny reports whether text contains any of the folded keywords.
func MentionsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Slugify turns a company name into a file-name friendly token.
// "Tata Motors Ltd." becomes "tata-motors-ltd".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if r > unicode.MaxASCII {
				continue
			}
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "report"
	}
	return slug
}
