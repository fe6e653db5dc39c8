// Package service composes a provider with rate limiting, retry and
// logging into a client suitable for prototyping against live APIs.
//
// The client is a thin coordinator: admission control comes from
// ratelimit.WindowLimiter, retry policy from the retry package, and
// batching from batch.ProcessAll over a ratelimit.Scheduler. Each of
// those can be used on its own; the client just wires them together.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hobbsb/llmkit/batch"
	"github.com/hobbsb/llmkit/errors"
	"github.com/hobbsb/llmkit/llm"
	"github.com/hobbsb/llmkit/logging"
	"github.com/hobbsb/llmkit/ratelimit"
	"github.com/hobbsb/llmkit/retry"
)

// Options configures a Client. All fields are optional; the zero value
// gives an un-throttled client with default retry policy.
type Options struct {
	// Limiter gates every provider call when set. Calls block in
	// Limiter.Await before reaching the provider.
	Limiter *ratelimit.WindowLimiter

	// Scheduler paces CompleteAll. Required for CompleteAll; Complete
	// and GenerateObject work without it.
	Scheduler *ratelimit.Scheduler

	// Retry is the retry policy applied around each provider call.
	// The zero value retries classified-transient failures up to
	// retry.DefaultMaxRetries attempts.
	Retry retry.Options

	// Logger receives request lifecycle events. Nil means a logger at
	// the default level writing to stdout.
	Logger *logging.Logger

	// MaxTokens is the per-request output token cap applied when the
	// request does not set one.
	MaxTokens int
}

// Client executes chat requests against a Provider with rate limiting,
// retries and per-request logging.
type Client struct {
	provider  llm.Provider
	limiter   *ratelimit.WindowLimiter
	scheduler *ratelimit.Scheduler
	retryOpts retry.Options
	logger    *logging.Logger
	maxTokens int
}

// New creates a Client over the given provider.
func New(provider llm.Provider, opts Options) (*Client, error) {
	if provider == nil {
		return nil, errors.New(errors.ErrCodeConfig, "provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New()
	}
	return &Client{
		provider:  provider,
		limiter:   opts.Limiter,
		scheduler: opts.Scheduler,
		retryOpts: opts.Retry,
		logger:    logger.WithComponent("service"),
		maxTokens: opts.MaxTokens,
	}, nil
}

// Complete sends a single user prompt and returns the model's text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Chat sends a chat request through the limiter and retry policy.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	log := c.logger.WithRequestID(uuid.NewString())
	return retry.DoValue(ctx, c.retryOptions(log), func(ctx context.Context) (*llm.ChatResponse, error) {
		return c.chatOnce(ctx, log, req)
	})
}

// CompleteAll runs one Complete per prompt through the scheduler and
// collects outcomes in completion order.
func (c *Client) CompleteAll(ctx context.Context, prompts []string) (batch.Result[string, string], error) {
	if c.scheduler == nil {
		return batch.Result[string, string]{}, errors.New(errors.ErrCodeConfig, "scheduler is required for CompleteAll")
	}
	start := time.Now()
	res := batch.ProcessAll(ctx, c.scheduler, prompts, func(ctx context.Context, prompt string) (string, error) {
		return c.Complete(ctx, prompt)
	})
	c.logger.BatchComplete(len(prompts), len(res.Successful), len(res.Failed), time.Since(start))
	return res, nil
}

// retryOptions returns the client's retry policy with retries reported to
// the request's logger, unless the caller installed its own hook.
func (c *Client) retryOptions(log *logging.Logger) retry.Options {
	opts := c.retryOpts
	if opts.OnRetry == nil {
		max := opts.MaxRetries
		if max <= 0 {
			max = retry.DefaultMaxRetries
		}
		opts.OnRetry = func(attempt int, delay time.Duration, err error) {
			log.RetryAttempt(attempt, max, delay, err)
		}
	}
	return opts
}

// chatOnce is a single attempt: limiter admission, provider call, logging.
func (c *Client) chatOnce(ctx context.Context, log *logging.Logger, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Await(ctx); err != nil {
			return nil, err
		}
		log.RateLimitWait(c.limiter.Pending(), time.Since(waitStart))
	}
	start := time.Now()
	resp, err := c.provider.Chat(ctx, req)
	if err != nil {
		log.RequestComplete("", time.Since(start), 0, 0, err)
		return nil, err
	}
	log.RequestComplete(resp.Model, time.Since(start), resp.InputTokens, resp.OutputTokens, nil)
	return resp, nil
}
