// Package advisor asks a chat model to pick parts from the searched catalog.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrMissingAPIKey   = errors.New("advisor: OPENAI_API_KEY is not set")
	ErrEmptyCompletion = errors.New("advisor: empty completion")
)

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	// Timeout bounds one attempt; longer product blocks get extra time.
	Timeout time.Duration
	// Backoff returns the wait before retry attempt n (1-based).
	Backoff func(attempt int) time.Duration
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

type Advisor struct {
	client     *openai.Client
	apiKey     string
	model      string
	maxRetries int
	timeout    time.Duration
	backoff    func(int) time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func New(opts Options) *Advisor {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	a := &Advisor{
		client:     openai.NewClientWithConfig(cfg),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxRetries: opts.MaxRetries,
		timeout:    opts.Timeout,
		backoff:    opts.Backoff,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
	if a.model == "" {
		a.model = "gpt-3.5-turbo-1106"
	}
	if a.maxRetries <= 0 {
		a.maxRetries = 3
	}
	if a.timeout <= 0 {
		a.timeout = 60 * time.Second
	}
	if a.backoff == nil {
		a.backoff = jitterBackoff
	}
	if a.limiter == nil {
		a.limiter = rate.NewLimiter(rate.Limit(3), 5) // 3 requests per second, burst of 5
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

func jitterBackoff(attempt int) time.Duration {
	base := time.Duration(attempt*3) * time.Second
	return base + time.Duration(rand.Intn(3))*time.Second
}

// Recommend returns the model's raw answer for the user's request and the
// per-part product listing.
func (a *Advisor) Recommend(ctx context.Context, userPrompt, productBlock string) (string, error) {
	if a.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	startTime := time.Now()
	user := UserPrompt(userPrompt, productBlock)
	timeout := a.timeout + time.Duration(len(user)/500)*time.Second
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   800,
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var (
		resp openai.ChatCompletionResponse
		err  error
	)
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if err = a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait failed: %w", err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err = a.client.CreateChatCompletion(attemptCtx, req)
		cancel()
		if err == nil && len(resp.Choices) > 0 {
			break
		}
		a.logger.Sugar().Warnf("OpenAI API attempt %d failed: %v", attempt, err)

		if attempt < a.maxRetries {
			wait := a.backoff(attempt)
			a.logger.Sugar().Infof("Retrying in %v...", wait)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("OpenAI API error after %d attempts: %w", a.maxRetries, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices: %w", ErrEmptyCompletion)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.logger.Sugar().Infof("Time taken to get response from OpenAI: %v", time.Since(startTime))
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
