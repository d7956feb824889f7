package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// PDF renderer
// ════════════════════════════════════════════════════════════════════

const (
	pdfFont       = "Arial"
	pdfLineHeight = 5.0
)

// pdfWriter draws report sections onto an fpdf document. Text is passed
// through the cp1252 translator of the core fonts.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// RenderPDF writes the report as an A4 PDF document to w.
func RenderPDF(r *models.Report, w io.Writer) error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	d := buildReportData(r)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(d.Title, true)
	pdf.SetCreator("NewsPulse", true)
	pdf.AddPage()

	pw := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pw.title(d.Company, "News sentiment report · "+d.GeneratedAt)

	pw.heading("Comparative Sentiment Score")
	pw.scoreRow(d.Score)

	pw.heading("Final Sentiment Analysis")
	if d.Final != "" {
		pw.paragraph(d.Final)
	} else {
		pw.muted("Not available")
	}
	if d.AudioURL != "" {
		pw.muted("Audio summary: " + d.AudioURL)
	}

	pw.heading("Articles")
	if len(d.Articles) == 0 {
		pw.muted("No articles found.")
	}
	for _, a := range d.Articles {
		pw.subheading(fmt.Sprintf("%d. %s", a.Index, a.Title))
		meta := "Sentiment: " + a.Sentiment
		if len(a.Topics) > 0 {
			meta += "  |  Topics: " + strings.Join(a.Topics, ", ")
		}
		pw.muted(meta)
		if a.Summary != "" {
			pw.paragraph(a.Summary)
		}
	}

	if len(d.Comparisons) > 0 {
		pw.heading("Coverage Differences")
		for _, c := range d.Comparisons {
			pw.subheading(c.Pair)
			pw.paragraph("Comparison: " + c.Comparison)
			pw.paragraph("Impact: " + c.Impact)
		}
	}

	if d.ShowOverlap {
		pw.heading("Topic Overlap")
		pw.paragraph("Common across pairs: " + joinOrNone(d.Common))
		for _, u := range d.Unique {
			pw.paragraph(u.Label + " unique: " + joinOrNone(u.Words))
		}
	}

	if len(d.Diagnostics) > 0 {
		pw.heading("Diagnostics")
		for _, diag := range d.Diagnostics {
			pw.paragraph("- " + diag)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return nil
}

func (p *pdfWriter) title(text, sub string) {
	p.pdf.SetFont(pdfFont, "B", 18)
	p.pdf.SetTextColor(37, 99, 235)
	p.pdf.CellFormat(0, 10, p.tr(text), "", 1, "L", false, 0, "")
	p.pdf.SetTextColor(107, 114, 128)
	p.pdf.SetFont(pdfFont, "", 9)
	p.pdf.CellFormat(0, pdfLineHeight, p.tr(sub), "", 1, "L", false, 0, "")
	p.pdf.SetDrawColor(37, 99, 235)
	p.pdf.Line(15, p.pdf.GetY()+2, 195, p.pdf.GetY()+2)
	p.pdf.Ln(4)
}

func (p *pdfWriter) heading(text string) {
	p.pdf.Ln(3)
	p.pdf.SetFont(pdfFont, "B", 13)
	p.pdf.SetTextColor(26, 26, 46)
	p.pdf.CellFormat(0, 8, p.tr(text), "B", 1, "L", false, 0, "")
	p.pdf.Ln(2)
}

func (p *pdfWriter) subheading(text string) {
	p.pdf.SetFont(pdfFont, "B", 10)
	p.pdf.SetTextColor(26, 26, 46)
	p.pdf.MultiCell(0, pdfLineHeight+1, p.tr(text), "", "L", false)
}

func (p *pdfWriter) paragraph(text string) {
	p.pdf.SetFont(pdfFont, "", 10)
	p.pdf.SetTextColor(26, 26, 46)
	p.pdf.MultiCell(0, pdfLineHeight, p.tr(text), "", "L", false)
	p.pdf.Ln(1)
}

func (p *pdfWriter) muted(text string) {
	p.pdf.SetFont(pdfFont, "I", 9)
	p.pdf.SetTextColor(107, 114, 128)
	p.pdf.MultiCell(0, pdfLineHeight, p.tr(text), "", "L", false)
	p.pdf.Ln(1)
}

// scoreRow draws one filled cell per sentiment.
func (p *pdfWriter) scoreRow(d models.Distribution) {
	cells := []struct {
		label   string
		n       int
		r, g, b int
	}{
		{"Positive", d.Positive, 22, 163, 74},
		{"Negative", d.Negative, 220, 38, 38},
		{"Neutral", d.Neutral, 107, 114, 128},
	}
	p.pdf.SetFont(pdfFont, "B", 11)
	p.pdf.SetTextColor(255, 255, 255)
	for _, c := range cells {
		p.pdf.SetFillColor(c.r, c.g, c.b)
		p.pdf.CellFormat(60, 9, fmt.Sprintf("%s: %d", c.label, c.n), "", 0, "C", true, 0, "")
	}
	p.pdf.Ln(11)
	p.pdf.SetFillColor(255, 255, 255)
}
