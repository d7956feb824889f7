package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/seenimoa/newspulse/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// provider.go — Types & Helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "be brief"}, SystemMessage("be brief"))
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, UserMessage("hello"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hi"}, AssistantMessage("hi"))
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Provider: "openai", Model: "gpt-4o-mini",
		Content: "short answer",
		Usage:   Usage{TotalTokens: 50},
		Latency: 100 * time.Millisecond,
	}
	s := r.String()
	assert.Contains(t, s, "openai/gpt-4o-mini")
	assert.Contains(t, s, "50 tokens")

	r.Content = strings.Repeat("x", 200)
	assert.Contains(t, r.String(), "...")
}

func TestSettings(t *testing.T) {
	cfg := ProviderConfig{Model: "base", Temperature: 0.2, MaxTokens: 100}

	model, temp, maxTok := cfg.settings(nil)
	assert.Equal(t, "base", model)
	assert.Equal(t, 0.2, temp)
	assert.Equal(t, 100, maxTok)

	model, temp, maxTok = cfg.settings(&ChatOptions{Model: "override", MaxTokens: 10})
	assert.Equal(t, "override", model)
	assert.Equal(t, 0.2, temp)
	assert.Equal(t, 10, maxTok)
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		SystemMessage("one"),
		UserMessage("q"),
		SystemMessage("two"),
		AssistantMessage("a"),
	})
	assert.Equal(t, "one\n\ntwo", system)
	assert.Equal(t, []Message{UserMessage("q"), AssistantMessage("a")}, turns)
}

// ════════════════════════════════════════════════════════════════════
// openai.go
// ════════════════════════════════════════════════════════════════════

type mockOpenAIClient struct {
	mock.Mock
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func TestOpenAIProviderNew(t *testing.T) {
	_, err := NewOpenAIProvider(ProviderConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())
	assert.Equal(t, openai.GPT4oMini, p.cfg.Model)
}

func TestOpenAIChat(t *testing.T) {
	client := new(mockOpenAIClient)
	p := newOpenAIProviderWithClient(client, ProviderConfig{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 256})

	client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-4o-mini" &&
			req.MaxTokens == 256 &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Content == "compare" &&
			req.ResponseFormat != nil &&
			req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONObject
	})).Return(openai.ChatCompletionResponse{
		Model: "gpt-4o-mini-2024-07-18",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"ok":true}`}},
		},
		Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
	}, nil).Once()

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("json only"), UserMessage("compare")},
		&ChatOptions{JSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
	client.AssertExpectations(t)
}

func TestOpenAIChatErrors(t *testing.T) {
	client := new(mockOpenAIClient)
	p := newOpenAIProviderWithClient(client, ProviderConfig{})

	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("boom")).Once()
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorContains(t, err, "boom")

	client.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil).Once()
	_, err = p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	client.AssertExpectations(t)
}

// ════════════════════════════════════════════════════════════════════
// gemini.go
// ════════════════════════════════════════════════════════════════════

func TestGeminiProviderNew(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), ProviderConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiChat(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"Final\": "}, {"text": "\"ok\"}"}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3, "totalTokenCount": 10}
		}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), ProviderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-2.0-flash",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("json only"), UserMessage("hello")},
		&ChatOptions{JSON: true})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.0-flash:generateContent"), gotPath)
	assert.Contains(t, gotBody, "systemInstruction")
	assert.Equal(t, `{"Final": "ok"}`, resp.Content)
	assert.Equal(t, ProviderGemini, resp.Provider)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestGeminiChatEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), []Message{UserMessage("hello")}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

// ════════════════════════════════════════════════════════════════════
// anthropic.go
// ════════════════════════════════════════════════════════════════════

func TestAnthropicProviderNew(t *testing.T) {
	_, err := NewAnthropicProvider(ProviderConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Name())
	assert.Equal(t, 1024, p.cfg.MaxTokens)
}

func TestAnthropicChat(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "hello back"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL, Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("be brief"), UserMessage("hello")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Equal(t, "claude-3-5-haiku-latest", gotBody["model"])
	assert.NotNil(t, gotBody["system"])
}

func TestAnthropicChatServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"down"}}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), []Message{UserMessage("hello")}, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "sdk retries must be off")
}

// ════════════════════════════════════════════════════════════════════
// router.go
// ════════════════════════════════════════════════════════════════════

type fakeProvider struct {
	name  string
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(_ context.Context, _ []Message, _ *ChatOptions) (*Response, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.reply, Provider: f.name}, nil
}

func TestRouterPrimaryOnly(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("quota")}
	backup := &fakeProvider{name: "openai", reply: "ok"}

	r := NewRouter("gemini")
	r.RegisterProvider(primary)
	r.RegisterProvider(backup)

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorContains(t, err, "quota")
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(0), backup.calls.Load(), "no fallback configured")
}

func TestRouterFallback(t *testing.T) {
	primary := &fakeProvider{name: "gemini", err: errors.New("quota")}
	backup := &fakeProvider{name: "openai", reply: "ok"}

	r := NewRouter("gemini", WithFallbacks("openai", "gemini"))
	r.RegisterProvider(primary)
	r.RegisterProvider(backup)

	assert.Equal(t, []string{"gemini", "openai"}, r.ProviderNames())

	resp, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(1), primary.calls.Load(), "no retries")
}

func TestRouterAllFail(t *testing.T) {
	r := NewRouter("gemini", WithFallbacks("openai"))
	r.RegisterProvider(&fakeProvider{name: "gemini", err: errors.New("a")})
	r.RegisterProvider(&fakeProvider{name: "openai", err: errors.New("b")})

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorContains(t, err, "all providers failed")
	assert.ErrorContains(t, err, "b")
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter("gemini")
	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorIs(t, err, ErrNoProviders)

	_, err = r.Primary()
	assert.ErrorIs(t, err, ErrNoProviders)
	assert.Equal(t, "router/gemini", r.Name())
}

func TestRouterLimiterHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	r := NewRouter("gemini", WithLimiter(limiter))
	p := &fakeProvider{name: "gemini", reply: "ok"}
	r.RegisterProvider(p)

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Chat(ctx, []Message{UserMessage("x")}, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestRequestsPerMinuteOption(t *testing.T) {
	assert.Nil(t, NewRouter("gemini", WithRequestsPerMinute(0)).limiter)

	r := NewRouter("gemini", WithRequestsPerMinute(60))
	require.NotNil(t, r.limiter)
	assert.Equal(t, rate.Limit(1), r.limiter.Limit())
}

func TestNewRouterFromConfig(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{
		Primary:           "openai",
		OpenAIKey:         "sk-test",
		AnthropicKey:      "ak-test",
		OpenAIModel:       "gpt-4o-mini",
		MaxTokens:         256,
		TimeoutSec:        10,
		RequestsPerMinute: 30,
	}}

	r, err := NewRouterFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, ok := r.GetProvider(ProviderOpenAI)
	assert.True(t, ok)
	_, ok = r.GetProvider(ProviderAnthropic)
	assert.True(t, ok)
	_, ok = r.GetProvider(ProviderGemini)
	assert.False(t, ok)
	assert.Equal(t, []string{"openai"}, r.ProviderNames())

	empty, err := NewRouterFromConfig(context.Background(), &config.Config{LLM: config.LLMConfig{Primary: "gemini"}}, nil)
	require.NoError(t, err)
	_, err = empty.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	assert.ErrorIs(t, err, ErrNoProviders)
}
