// Package llm implements the external sentiment provider client on top of
// the OpenAI chat completions API. The client owns the prompt/schema
// contract and the JSON payload parsing; it deliberately does not validate
// field values, which is the normalizer's job (internal/sentiment).
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/go-sentiment-backend/internal/sentiment"
)

const (
	defaultModel = "gpt-3.5-turbo"

	// Low temperature keeps classifications deterministic-leaning.
	temperature = 0.3
	maxTokens   = 300
)

// systemPrompt fully specifies the JSON shape the provider must return.
// The response format is additionally pinned to a JSON object, so a
// well-behaved provider cannot reply with prose.
const systemPrompt = `You are a sentiment analysis expert. Analyze the sentiment of the given text and respond with a JSON object containing:
- sentiment: one of "positive", "negative", or "neutral"
- confidence: a number between 0 and 1 representing confidence in the analysis
- explanation: a brief explanation of why this sentiment was determined
- positiveScore: confidence score for positive sentiment (0-1)
- negativeScore: confidence score for negative sentiment (0-1)
- neutralScore: confidence score for neutral sentiment (0-1)`

// ProviderError wraps any failure of the external classifier: transport
// errors, non-success HTTP statuses, empty completions, and unparseable
// payloads. Callers are expected to absorb it by falling back to the
// rule-based scorer; it must never surface past the service layer.
type ProviderError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("sentiment provider: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }

// Client calls the OpenAI-compatible chat completions endpoint to classify
// text. It performs exactly one attempt per invocation; retry and fallback
// policy live in the caller.
type Client struct {
	api   *openai.Client
	model string
}

// Option customizes a Client.
type Option func(*clientConfig)

type clientConfig struct {
	model   string
	baseURL string
}

// WithModel overrides the completion model (default gpt-3.5-turbo).
func WithModel(model string) Option {
	return func(c *clientConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at an alternative OpenAI-compatible
// endpoint. Used for self-hosted gateways and for tests.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// NewClient constructs a provider client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	cc := clientConfig{model: defaultModel}
	for _, opt := range opts {
		opt(&cc)
	}

	cfg := openai.DefaultConfig(apiKey)
	if cc.baseURL != "" {
		cfg.BaseURL = cc.baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: cc.model,
	}
}

// Classify sends text to the provider and returns the raw, unvalidated
// classification. A single round trip; any failure is reported as a
// *ProviderError.
func (c *Client) Classify(ctx context.Context, text string) (sentiment.Raw, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Analyze the sentiment of this text: %q", text)},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return sentiment.Raw{}, &ProviderError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return sentiment.Raw{}, &ProviderError{Op: "chat completion", Err: fmt.Errorf("no choices in response")}
	}

	raw, err := sentiment.ParseRaw([]byte(stripFences(resp.Choices[0].Message.Content)))
	if err != nil {
		return sentiment.Raw{}, &ProviderError{Op: "parse payload", Err: err}
	}
	return raw, nil
}

// stripFences removes a Markdown code fence wrapped around the payload.
// OpenAI-compatible gateways that ignore the pinned response format sometimes
// return the object inside a fenced block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
