package report

// ReportTemplate is the HTML template for the news-sentiment report.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 12px 0 4px; }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  .score-bar { display: grid; grid-template-columns: repeat(4, 1fr); gap: 8px; background: var(--section-bg); padding: 12px; border-radius: 8px; }
  .score-item { text-align: center; }
  .score-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .score-item .value { font-size: 1.2rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  .neutral { color: var(--muted); }
  .article { border: 1px solid var(--border); border-radius: 8px; padding: 12px; margin-bottom: 10px; }
  .badge { display: inline-block; padding: 1px 8px; border-radius: 4px; font-size: 0.75rem; font-weight: 600; border: 1px solid currentColor; }
  .topic { display: inline-block; background: var(--section-bg); border: 1px solid var(--border); border-radius: 12px; padding: 0 8px; margin: 2px; font-size: 0.8rem; }
  table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--border); vertical-align: top; }
  th { background: var(--section-bg); }
  .final { background: var(--section-bg); border-left: 4px solid var(--accent); padding: 12px; border-radius: 4px; }
  .diagnostics { color: var(--red); font-size: 0.85rem; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); color: var(--muted); font-size: 0.75rem; }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Company}}</h1>
  <p class="muted">News sentiment report · {{.GeneratedAt}} · {{len .Articles}} articles</p>
</div>

<h2>Comparative Sentiment Score</h2>
<div class="score-bar">
  <div class="score-item"><div class="label">Positive</div><div class="value positive">{{.Score.Positive}}</div></div>
  <div class="score-item"><div class="label">Negative</div><div class="value negative">{{.Score.Negative}}</div></div>
  <div class="score-item"><div class="label">Neutral</div><div class="value neutral">{{.Score.Neutral}}</div></div>
  <div class="score-item"><div class="label">Total</div><div class="value">{{.Score.Total}}</div></div>
</div>
<div>{{.SentimentChart}}</div>

<h2>Final Sentiment Analysis</h2>
<div class="final">{{if .Final}}{{.Final}}{{else}}<span class="muted">Not available</span>{{end}}</div>
{{if .AudioURL}}
<p><audio controls src="{{.AudioURL}}"></audio> <a href="{{.AudioURL}}">Download audio summary</a></p>
{{end}}

<h2>Articles</h2>
{{range .Articles}}
<div class="article">
  <h3>{{.Index}}. {{.Title}}</h3>
  <span class="badge {{.SentimentClass}}">{{.Sentiment}}</span>
  <p>{{.Summary}}</p>
  <div>{{range .Topics}}<span class="topic">{{.}}</span>{{end}}</div>
</div>
{{else}}
<p class="muted">No articles found.</p>
{{end}}

{{if .Comparisons}}
<h2>Coverage Differences</h2>
<table>
  <tr><th>Pair</th><th>Comparison</th><th>Impact</th></tr>
  {{range .Comparisons}}
  <tr><td>{{.Pair}}</td><td>{{.Comparison}}</td><td>{{.Impact}}</td></tr>
  {{end}}
</table>
{{end}}

{{if .ShowOverlap}}
<h2>Topic Overlap</h2>
<p><strong>Common across pairs:</strong>
  {{range .Common}}<span class="topic">{{.}}</span>{{else}}<span class="muted">none</span>{{end}}</p>
<table>
  <tr><th>Article</th><th>Unique topics</th></tr>
  {{range .Unique}}
  <tr><td>{{.Label}}</td><td>{{range .Words}}<span class="topic">{{.}}</span>{{else}}<span class="muted">none</span>{{end}}</td></tr>
  {{end}}
</table>
{{end}}

{{if .Diagnostics}}
<h2>Diagnostics</h2>
<ul class="diagnostics">
  {{range .Diagnostics}}<li>{{.}}</li>{{end}}
</ul>
{{end}}

<div class="footer">
  Generated by NewsPulse. Sentiment labels are lexicon based; comparisons are written by a language model.
</div>

</body>
</html>`
