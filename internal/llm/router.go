package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logger"
)

// Router sends chat requests to the configured primary provider and, when
// an explicit fallback chain is set, to each fallback in order. Every call
// waits on a shared limiter first.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallbacks []string
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithRequestsPerMinute limits calls across all providers. Zero or less
// disables limiting.
func WithRequestsPerMinute(rpm int) RouterOption {
	return func(r *Router) {
		if rpm <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithLimiter installs a custom limiter.
func WithLimiter(l *rate.Limiter) RouterOption {
	return func(r *Router) { r.limiter = l }
}

// WithLogger sets the router logger.
func WithLogger(log logrus.FieldLogger) RouterOption {
	return func(r *Router) { r.log = log }
}

// NewRouter creates a new LLM router with the given primary provider.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers: make(map[string]Provider),
		primary:   primary,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrDiscard(r.log)
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Primary returns the primary provider.
func (r *Router) Primary() (Provider, error) {
	p, ok := r.GetProvider(r.primary)
	if !ok {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return p, nil
}

// Name returns the router identifier (satisfies Provider).
func (r *Router) Name() string {
	return "router/" + r.primary
}

// ProviderNames returns the chain in call order, skipping names that are
// not registered.
func (r *Router) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chainLocked()
}

// Chat routes a chat request through the provider chain. Each provider is
// tried once; there are no retries.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	r.mu.RLock()
	chain := r.chainLocked()
	providers := make([]Provider, 0, len(chain))
	for _, name := range chain {
		providers = append(providers, r.providers[name])
	}
	r.mu.RUnlock()

	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, provider := range providers {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("llm/router: rate limit wait: %w", err)
			}
		}

		resp, err := provider.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrNoAPIKey) {
			return nil, err
		}
		r.log.WithError(err).WithField("provider", provider.Name()).Warn("llm provider failed")
	}

	if len(providers) == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

// chainLocked returns primary followed by fallbacks, deduplicated and
// limited to registered providers. Callers hold r.mu.
func (r *Router) chainLocked() []string {
	seen := make(map[string]bool, len(r.fallbacks)+1)
	var chain []string
	for _, name := range append([]string{r.primary}, r.fallbacks...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := r.providers[name]; ok {
			chain = append(chain, name)
		}
	}
	return chain
}

// NewRouterFromConfig builds a router with every provider whose API key is
// configured. A router with no providers is still returned; its calls fail
// with ErrNoProviders.
func NewRouterFromConfig(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Router, error) {
	router := NewRouter(cfg.LLM.Primary,
		WithFallbacks(cfg.LLM.Fallbacks...),
		WithRequestsPerMinute(cfg.LLM.RequestsPerMinute),
		WithLogger(log),
	)

	base := ProviderConfig{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout(),
	}

	if cfg.LLM.GeminiKey != "" {
		pc := base
		pc.APIKey, pc.Model = cfg.LLM.GeminiKey, cfg.LLM.GeminiModel
		p, err := NewGeminiProvider(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		router.RegisterProvider(p)
	}

	if cfg.LLM.OpenAIKey != "" {
		pc := base
		pc.APIKey, pc.Model = cfg.LLM.OpenAIKey, cfg.LLM.OpenAIModel
		p, err := NewOpenAIProvider(pc)
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		router.RegisterProvider(p)
	}

	if cfg.LLM.AnthropicKey != "" {
		pc := base
		pc.APIKey, pc.Model = cfg.LLM.AnthropicKey, cfg.LLM.AnthropicModel
		p, err := NewAnthropicProvider(pc)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.RegisterProvider(p)
	}

	return router, nil
}
