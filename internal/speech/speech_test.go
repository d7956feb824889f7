package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
)

// fakeGoogle serves translate_a/single and translate_tts.
type fakeGoogle struct {
	mu         sync.Mutex
	translates int
	ttsQueries []string
	failTTS    bool
}

func (f *fakeGoogle) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/translate_a/single", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.translates++
		f.mu.Unlock()
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "auto" || q.Get("dt") != "t" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[[["कवरेज ","Coverage ",null,null,10],["सकारात्मक है","is positive",null,null,10]],null,"en"]`)
	})
	mux.HandleFunc("/translate_tts", func(w http.ResponseWriter, r *http.Request) {
		if f.failTTS {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		q := r.URL.Query()
		f.mu.Lock()
		f.ttsQueries = append(f.ttsQueries, q.Get("q"))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.WriteString(w, "MP3["+q.Get("idx")+"]")
	})
	return mux
}

func newTestConverter(t *testing.T, srv *httptest.Server) (*Converter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "audio")
	c, err := NewConverter(config.AudioConfig{
		Enabled:      true,
		Language:     "hi",
		OutputDir:    dir,
		CleanOnStart: true,
		TranslateURL: srv.URL + "/translate_a/single",
		TTSURL:       srv.URL + "/translate_tts",
		TimeoutSec:   5,
	}, nil)
	require.NoError(t, err)
	return c, dir
}

// ── Convert ──

func TestConvertTranslatesAndWritesMP3(t *testing.T) {
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, dir := newTestConverter(t, srv)
	out := c.Convert(context.Background(), "The overall coverage of the company is positive and growth looks strong.", "Tata Motors")
	require.False(t, out.Degraded, out.Reason)

	assert.Equal(t, dir, filepath.Dir(out.Value))
	base := filepath.Base(out.Value)
	assert.True(t, strings.HasPrefix(base, "tata-motors-"), base)
	assert.True(t, strings.HasSuffix(base, ".mp3"), base)

	data, err := os.ReadFile(out.Value)
	require.NoError(t, err)
	assert.Equal(t, "MP3[0]", string(data))

	assert.Equal(t, 1, fake.translates)
	assert.Equal(t, []string{"कवरेज सकारात्मक है"}, fake.ttsQueries)
}

func TestConvertSkipsTranslationForTargetLanguage(t *testing.T) {
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, _ := newTestConverter(t, srv)
	out := c.Convert(context.Background(), "कंपनी के बारे में समाचार कवरेज कुल मिलाकर सकारात्मक है", "Tesla")
	require.False(t, out.Degraded, out.Reason)
	assert.Equal(t, 0, fake.translates)
	assert.Len(t, fake.ttsQueries, 1)
}

func TestConvertDegrades(t *testing.T) {
	fake := &fakeGoogle{failTTS: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, dir := newTestConverter(t, srv)

	out := c.Convert(context.Background(), "Coverage is positive.", "Tesla")
	assert.True(t, out.Degraded)
	assert.Empty(t, out.Value)
	assert.Contains(t, out.Reason, "429")

	out = c.Convert(context.Background(), "   ", "Tesla")
	assert.True(t, out.Degraded)
	assert.Contains(t, out.Reason, ErrEmptyText.Error())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file written on failure")
}

// ── PrepareDir ──

func TestPrepareDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, PrepareDir(dir, false))
	stale := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	require.NoError(t, PrepareDir(dir, false))
	assert.FileExists(t, stale)

	require.NoError(t, PrepareDir(dir, true))
	assert.NoFileExists(t, stale)
	assert.DirExists(t, dir)
}

// ── Translator / Synthesizer ──

func TestParseTranslation(t *testing.T) {
	got, err := parseTranslation([]byte(`[[["नमस्ते","hello",null,null,1]],null,"en"]`))
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते", got)

	for _, bad := range []string{`{}`, `[]`, `[null]`, `[[]]`, `not json`} {
		_, err := parseTranslation([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	fake := &fakeGoogle{failTTS: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := NewSynthesizer(srv.URL+"/translate_tts", 0).Synthesize(context.Background(), "hello", "en")
	var httpErr *infra.ErrHTTP
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestSynthesizeChunks(t *testing.T) {
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	long := strings.Repeat("word ", 50)
	s := NewSynthesizer(srv.URL+"/translate_tts", 0)
	audio, err := s.Synthesize(context.Background(), long, "hi")
	require.NoError(t, err)

	require.Len(t, fake.ttsQueries, 3)
	assert.Equal(t, "MP3[0]MP3[1]MP3[2]", string(audio))
}

func TestChunkText(t *testing.T) {
	assert.Empty(t, chunkText("   ", 100))
	assert.Equal(t, []string{"a b c"}, chunkText("a  b\nc", 100))
	assert.Equal(t, []string{"ab cd", "ef"}, chunkText("ab cd ef", 5))
	assert.Equal(t, []string{"abcde", "fg h"}, chunkText("abcdefg h", 5))

	for _, chunk := range chunkText(strings.Repeat("नमस्ते दुनिया ", 30), maxChunkRunes) {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), maxChunkRunes)
	}
}

func TestDetect(t *testing.T) {
	d := NewDetector()
	code, ok := d.Detect("The company reported strong quarterly growth and rising profits.")
	assert.True(t, ok)
	assert.Equal(t, "en", code)

	code, ok = d.Detect("कंपनी ने इस तिमाही में मजबूत वृद्धि दर्ज की")
	assert.True(t, ok)
	assert.Equal(t, "hi", code)

	code, ok = d.Detect("Das Unternehmen meldete ein starkes Wachstum und steigende Gewinne.")
	assert.True(t, ok)
	assert.Equal(t, "de", code)
}
