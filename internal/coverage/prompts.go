package coverage

import (
	"fmt"

	"github.com/seenimoa/newspulse/pkg/models"
)

const pairTemplate = `Compare these articles and respond in JSON format:

Article %d - Title: %s
Summary: %s

Article %d - Title: %s
Summary: %s

Provide:
1. "Comparison": One sentence highlighting key difference
2. "Impact": One sentence on practical consequence

Do not add any words outside the JSON object.

Format exactly like this:
{
    "Comparison": "Your one-line comparison here",
    "Impact": "Your one-line impact here"
}`

const finalTemplate = `Analyze the following impacts from news coverage and provide a final sentiment analysis in two lines:

%s

Specifically address:
1. Whether the overall news coverage is positive or negative.
2. The overall impact on the company's market growth.

Respond in JSON format:
{
    "Final Sentiment Analysis": "Your two-line analysis here"
}

Do not add any words outside the JSON object.`

// pairPrompt numbers the pair's articles n and n+1 (1-indexed).
func pairPrompt(n int, a, b models.Article) string {
	return fmt.Sprintf(pairTemplate, n, a.Title, a.Summary, n+1, b.Title, b.Summary)
}

func finalPrompt(impacts string) string {
	return fmt.Sprintf(finalTemplate, impacts)
}
