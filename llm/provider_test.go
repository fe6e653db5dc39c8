package llm

import (
	"context"
	"errors"
	"os"
	"testing"

	llmerrors "github.com/hobbsb/llmkit/errors"
	"github.com/hobbsb/llmkit/retry"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{Provider: "anthropic", Model: "claude-sonnet-4-5", APIKey: "sk-test", MaxTokens: 1024}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(Config) Config
	}{
		{"missing provider", func(c Config) Config { c.Provider = ""; return c }},
		{"missing model", func(c Config) Config { c.Model = ""; return c }},
		{"missing api key", func(c Config) Config { c.APIKey = ""; return c }},
		{"zero max tokens", func(c Config) Config { c.MaxTokens = 0; return c }},
	}
	for _, tc := range cases {
		cfg := tc.mut(valid)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestInferProviderFromModel(t *testing.T) {
	cases := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-5", "anthropic"},
		{"Claude-Opus-4", "anthropic"},
		{"gpt-5", "openai"},
		{"o3-mini", "openai"},
		{"gemini-2.0-flash", "google"},
		{"gemma-2-9b", "google"},
		{"mystery-model", ""},
	}
	for _, tc := range cases {
		if got := InferProviderFromModel(tc.model); got != tc.want {
			t.Errorf("InferProviderFromModel(%q) = %q, want %q", tc.model, got, tc.want)
		}
	}
}

func TestNewProvider_InferenceAndRouting(t *testing.T) {
	p, err := NewProvider(Config{Model: "claude-sonnet-4-5", APIKey: "sk-test", MaxTokens: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("expected AnthropicProvider, got %T", p)
	}

	p, err = NewProvider(Config{Model: "gpt-5", APIKey: "sk-test", MaxTokens: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("expected OpenAIProvider, got %T", p)
	}
}

func TestNewProvider_ResolvesKeyFromEnvironment(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	// No APIKey in the config: the credentials chain supplies it.
	p, err := NewProvider(Config{Model: "claude-sonnet-4-5", MaxTokens: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("expected AnthropicProvider, got %T", p)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(Config{Model: "mystery-model", APIKey: "sk-test", MaxTokens: 1024})
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if llmerrors.Code(err) != llmerrors.ErrCodeConfig {
		t.Errorf("expected CONFIG code, got %s", llmerrors.Code(err))
	}

	_, err = NewProvider(Config{Provider: "smoke-signals", Model: "m", APIKey: "k", MaxTokens: 1})
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestClassifyErr(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantCode  llmerrors.ErrorCode
		retryable bool
	}{
		{"rate limit", errors.New("429 too many requests"), llmerrors.ErrCodeRateLimit, true},
		{"overloaded", errors.New("model is overloaded"), llmerrors.ErrCodeRateLimit, true},
		{"server error", errors.New("503 service unavailable"), llmerrors.ErrCodeUnavailable, true},
		{"timeout", errors.New("request timed out"), llmerrors.ErrCodeTimeout, true},
		{"billing", errors.New("quota exceeded for billing period"), llmerrors.ErrCodeBilling, false},
		{"auth", errors.New("401 unauthorized: invalid api key"), llmerrors.ErrCodeUnauthorized, false},
		{"opaque", errors.New("mysterious failure"), llmerrors.ErrCodeInternal, false},
	}

	for _, tc := range cases {
		got := classifyErr("test", tc.err)
		if llmerrors.Code(got) != tc.wantCode {
			t.Errorf("%s: code = %s, want %s", tc.name, llmerrors.Code(got), tc.wantCode)
		}
		if retry.Retryable(got) != tc.retryable {
			t.Errorf("%s: retryable = %v, want %v", tc.name, retry.Retryable(got), tc.retryable)
		}
		if !errors.Is(got, tc.err) {
			t.Errorf("%s: original error lost from chain", tc.name)
		}
	}

	if classifyErr("test", nil) != nil {
		t.Error("classifying nil should return nil")
	}
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse("hello")

	resp, err := mock.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("expected canned response, got %q", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
	if got := mock.LastRequest().Messages[0].Content; got != "hi" {
		t.Errorf("expected request recorded, got %q", got)
	}

	wantErr := errors.New("scripted failure")
	mock.SetError(wantErr)
	if _, err := mock.Chat(context.Background(), ChatRequest{}); !errors.Is(err, wantErr) {
		t.Errorf("expected scripted error, got %v", err)
	}
}

func TestMockProvider_ChatFunc(t *testing.T) {
	mock := NewMockProvider()
	mock.ChatFunc = func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Content: "custom"}, nil
	}

	resp, err := mock.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "custom" {
		t.Errorf("expected ChatFunc response, got %q", resp.Content)
	}
}
