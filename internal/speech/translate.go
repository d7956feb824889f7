package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/infra"
)

// get performs a GET and returns the full body of a 200 response.
func get(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &infra.ErrHTTP{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return io.ReadAll(resp.Body)
}

// Translator calls the translate_a/single endpoint.
type Translator struct {
	endpoint string
	client   *http.Client
}

// NewTranslator creates a translator for endpoint.
func NewTranslator(endpoint string, timeout time.Duration) *Translator {
	return &Translator{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Translate converts text to the target language, detecting the source.
func (t *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	body, err := get(ctx, t.client, t.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	out, err := parseTranslation(body)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

// parseTranslation joins the translated segments of a reply shaped like
// [[["translated","source",...],...],null,"en",...].
func parseTranslation(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("decode reply: empty")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("decode reply: no segments")
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("decode reply: no translated text")
	}
	return b.String(), nil
}
