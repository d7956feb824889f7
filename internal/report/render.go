package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMarkdown, FormatHTML, FormatPDF:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json, markdown, html or pdf)", s)
	}
}

// Render writes rep to w in the given format.
func Render(w io.Writer, rep *models.Report, format Format) error {
	if rep == nil {
		return fmt.Errorf("report is nil")
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatMarkdown:
		_, err := io.WriteString(w, RenderMarkdown(rep))
		return err
	case FormatHTML:
		html, err := RenderHTML(rep)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	case FormatPDF:
		return RenderPDF(rep, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// ════════════════════════════════════════════════════════════════════
// Report Data — Flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title          string
	Company        string
	GeneratedAt    string
	Score          models.Distribution
	SentimentChart template.HTML
	Final          string
	AudioURL       string
	Articles       []ArticleRow
	Comparisons    []ComparisonRow
	ShowOverlap    bool
	Common         []string
	Unique         []UniqueRow
	Diagnostics    []string
}

// ArticleRow is one article in the rendered report.
type ArticleRow struct {
	Index          int
	Title          string
	Summary        string
	Sentiment      string
	SentimentClass string
	Topics         []string
}

// ComparisonRow is one coverage comparison.
type ComparisonRow struct {
	Pair       string
	Comparison string
	Impact     string
}

// UniqueRow lists the topics only one article mentions.
type UniqueRow struct {
	Label string
	Words []string
}

func buildReportData(r *models.Report) ReportData {
	d := ReportData{
		Title:          r.Company + " News Sentiment Report",
		Company:        r.Company,
		GeneratedAt:    ReportTimestamp(),
		Score:          r.SentimentScore,
		SentimentChart: template.HTML(SentimentChart(r.SentimentScore, DefaultChartConfig())),
		Final:          r.FinalSentimentAnalysis,
		AudioURL:       AudioURL(r.Audio),
		ShowOverlap:    !r.TopicOverlap.Empty(),
		Common:         r.TopicOverlap.CommonAcrossPairs,
		Diagnostics:    r.Diagnostics,
	}

	for i, a := range r.Articles {
		d.Articles = append(d.Articles, ArticleRow{
			Index:          i + 1,
			Title:          a.Title,
			Summary:        a.Summary,
			Sentiment:      sentimentLabel(a.Sentiment),
			SentimentClass: sentimentClass(a.Sentiment),
			Topics:         a.Topics,
		})
	}
	for k, c := range r.CoverageDifferences {
		d.Comparisons = append(d.Comparisons, ComparisonRow{
			Pair:       pairLabel(k),
			Comparison: c.Comparison,
			Impact:     c.Impact,
		})
	}
	for i, words := range r.TopicOverlap.Unique {
		d.Unique = append(d.Unique, UniqueRow{Label: fmt.Sprintf("Article %d", i+1), Words: words})
	}
	return d
}

// AudioURL is the API path serving an audio file, or "" when absent.
func AudioURL(path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	return "/audio/" + filepath.Base(*path)
}

func pairLabel(k int) string {
	return fmt.Sprintf("Articles %d & %d", 2*k+1, 2*k+2)
}

func sentimentLabel(s models.Sentiment) string {
	if s == "" {
		return "Neutral"
	}
	str := string(s)
	return strings.ToUpper(str[:1]) + str[1:]
}

func sentimentClass(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return "positive"
	case models.SentimentNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// ════════════════════════════════════════════════════════════════════
// HTML renderer
// ════════════════════════════════════════════════════════════════════

var reportTmpl = template.Must(template.New("report").Parse(ReportTemplate))

// RenderHTML renders a standalone HTML page for the report.
func RenderHTML(r *models.Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report is nil")
	}
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, buildReportData(r)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Markdown renderer
// ════════════════════════════════════════════════════════════════════

// RenderMarkdown renders the report as Markdown (terminal / CLI friendly).
func RenderMarkdown(r *models.Report) string {
	d := buildReportData(r)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	fmt.Fprintf(&sb, "_Generated %s · %d articles_\n\n", d.GeneratedAt, len(d.Articles))

	sb.WriteString("## Comparative Sentiment Score\n\n")
	sb.WriteString("| Positive | Negative | Neutral |\n|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d |\n\n", d.Score.Positive, d.Score.Negative, d.Score.Neutral)

	sb.WriteString("## Final Sentiment Analysis\n\n")
	if d.Final != "" {
		sb.WriteString(d.Final + "\n\n")
	} else {
		sb.WriteString("_Not available_\n\n")
	}
	if d.AudioURL != "" {
		fmt.Fprintf(&sb, "Audio summary: %s\n\n", d.AudioURL)
	}

	sb.WriteString("## Articles\n\n")
	if len(d.Articles) == 0 {
		sb.WriteString("_No articles found._\n\n")
	}
	for _, a := range d.Articles {
		fmt.Fprintf(&sb, "### %d. %s\n\n", a.Index, a.Title)
		fmt.Fprintf(&sb, "**Sentiment:** %s", a.Sentiment)
		if len(a.Topics) > 0 {
			fmt.Fprintf(&sb, " · **Topics:** %s", strings.Join(a.Topics, ", "))
		}
		sb.WriteString("\n\n")
		if a.Summary != "" {
			sb.WriteString(a.Summary + "\n\n")
		}
	}

	if len(d.Comparisons) > 0 {
		sb.WriteString("## Coverage Differences\n\n")
		sb.WriteString("| Pair | Comparison | Impact |\n|---|---|---|\n")
		for _, c := range d.Comparisons {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", c.Pair, mdCell(c.Comparison), mdCell(c.Impact))
		}
		sb.WriteString("\n")
	}

	if d.ShowOverlap {
		sb.WriteString("## Topic Overlap\n\n")
		fmt.Fprintf(&sb, "- **Common across pairs:** %s\n", joinOrNone(d.Common))
		for _, u := range d.Unique {
			fmt.Fprintf(&sb, "- **%s unique:** %s\n", u.Label, joinOrNone(u.Words))
		}
		sb.WriteString("\n")
	}

	if len(d.Diagnostics) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		for _, diag := range d.Diagnostics {
			fmt.Fprintf(&sb, "- %s\n", diag)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func joinOrNone(words []string) string {
	if len(words) == 0 {
		return "none"
	}
	return strings.Join(words, ", ")
}

// ReportTimestamp returns the current UTC time formatted for report headers.
func ReportTimestamp() string {
	return time.Now().UTC().Format("02 Jan 2006, 15:04 MST")
}
