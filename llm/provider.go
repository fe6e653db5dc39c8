// Package llm provides thin provider adapters over third-party AI SDKs.
//
// Adapters are deliberately single-shot: they convert one neutral
// ChatRequest into the SDK's native call, make it once, and convert the
// response back. Pacing and retry policy live in the ratelimit and retry
// packages; an adapter's only error duty is returning failures classified
// well enough for the retry classifier to act on.
package llm

import (
	"context"

	"github.com/hobbsb/llmkit/errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-neutral chat request.
type ChatRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// ChatResponse is a provider-neutral chat response.
type ChatResponse struct {
	Content      string `json:"content"`
	StopReason   string `json:"stop_reason"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Provider is the interface for LLM providers.
type Provider interface {
	// Chat sends a single chat request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Config selects and configures a provider. It is an explicit value passed
// into constructors; nothing in this package reads ambient global state.
type Config struct {
	Provider  string `json:"provider"` // anthropic, openai, google
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	MaxTokens int    `json:"max_tokens"`
	BaseURL   string `json:"base_url,omitempty"` // custom endpoint, where the SDK supports one
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.InvalidInput("provider is required")
	}
	if c.Model == "" {
		return errors.InvalidInput("model is required")
	}
	if c.APIKey == "" {
		return errors.InvalidInput("api key is required")
	}
	if c.MaxTokens <= 0 {
		return errors.InvalidInput("max_tokens must be > 0")
	}
	return nil
}

// --- Mock Provider for Testing ---

// MockProvider is a scriptable Provider for tests and offline examples.
type MockProvider struct {
	response  string
	err       error
	callCount int

	// ChatFunc overrides the canned behavior entirely when set.
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	lastRequest *ChatRequest
}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetResponse sets the canned response content.
func (p *MockProvider) SetResponse(content string) {
	p.response = content
}

// SetError sets an error to return from every Chat call.
func (p *MockProvider) SetError(err error) {
	p.err = err
}

// CallCount returns the number of Chat calls made.
func (p *MockProvider) CallCount() int {
	return p.callCount
}

// LastRequest returns the most recent request.
func (p *MockProvider) LastRequest() *ChatRequest {
	return p.lastRequest
}

// Chat implements the Provider interface.
func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.callCount++
	p.lastRequest = &req

	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &ChatResponse{
		Content:    p.response,
		StopReason: "end_turn",
		Model:      "mock",
	}, nil
}
