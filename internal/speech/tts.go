package speech

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxChunkRunes is the longest text the speech endpoint accepts per call.
const maxChunkRunes = 100

// Synthesizer calls the translate_tts endpoint and concatenates the MP3
// fragments.
type Synthesizer struct {
	endpoint string
	client   *http.Client
}

// NewSynthesizer creates a synthesizer for endpoint.
func NewSynthesizer(endpoint string, timeout time.Duration) *Synthesizer {
	return &Synthesizer{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Synthesize returns MP3 audio speaking text in lang.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := chunkText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("q", chunk)
		q.Set("tl", lang)
		q.Set("client", "tw-ob")
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		body, err := get(ctx, s.client, s.endpoint+"?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(body)
	}
	return audio.Bytes(), nil
}

// chunkText packs whole words into chunks of at most limit runes. A word
// longer than limit is split on rune boundaries.
func chunkText(text string, limit int) []string {
	var chunks []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= limit:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return chunks
}
