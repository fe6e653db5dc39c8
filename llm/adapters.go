package llm

import (
	"strings"

	"github.com/hobbsb/llmkit/credentials"
	"github.com/hobbsb/llmkit/errors"
)

// NewProvider creates a provider based on the configuration.
// If Provider is empty, it is inferred from the model name. If APIKey is
// empty, it is resolved from credentials.toml or the provider's
// environment variable.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Provider == "" && cfg.Model != "" {
		cfg.Provider = InferProviderFromModel(cfg.Model)
		if cfg.Provider == "" {
			return nil, errors.Newf(errors.ErrCodeConfig,
				"cannot determine provider for model %q; set provider explicitly", cfg.Model)
		}
	}

	if cfg.APIKey == "" {
		store, path, err := credentials.Load()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrCodeConfig,
				"loading credentials from "+path)
		}
		cfg.APIKey = store.APIKey(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "google":
		return NewGoogleProvider(cfg)
	default:
		return nil, errors.Newf(errors.ErrCodeConfig, "unsupported provider: %s", cfg.Provider)
	}
}

// InferProviderFromModel returns the provider name based on model name
// patterns, so callers can give just a model name.
func InferProviderFromModel(model string) string {
	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude") {
		return "anthropic"
	}
	if strings.HasPrefix(model, "gpt-") ||
		strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "chatgpt") {
		return "openai"
	}
	if strings.HasPrefix(model, "gemini") ||
		strings.HasPrefix(model, "gemma") {
		return "google"
	}
	return ""
}

// classifyErr wraps an SDK error so the retry classifier can act on it.
// SDKs surface HTTP failures as opaque errors, so classification is by
// message content, the same way the raw status lines read.
func classifyErr(provider string, err error) error {
	if err == nil {
		return nil
	}
	msg := provider + " request failed"
	s := strings.ToLower(err.Error())

	switch {
	case containsAny(s, "billing", "payment", "credits", "quota exceeded", "insufficient", "402", "subscription", "expired"):
		return errors.WrapWithCode(err, errors.ErrCodeBilling, msg)
	case containsAny(s, "401", "403", "unauthorized", "forbidden", "invalid api key", "authentication"):
		return errors.WrapWithCode(err, errors.ErrCodeUnauthorized, msg)
	case containsAny(s, "rate limit", "too many requests", "429", "overloaded", "capacity"):
		return errors.WrapWithCode(err, errors.ErrCodeRateLimit, msg)
	case containsAny(s, "timeout", "timed out", "deadline exceeded"):
		return errors.WrapWithCode(err, errors.ErrCodeTimeout, msg)
	case containsAny(s, "500", "502", "503", "504", "internal server error", "bad gateway",
		"service unavailable", "gateway timeout", "temporarily unavailable"):
		return errors.WrapWithCode(err, errors.ErrCodeUnavailable, msg)
	default:
		return errors.Wrap(err, msg)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
