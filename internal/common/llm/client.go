// internal/common/llm/client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"

	commonhttp "titanic-agent/internal/common/http"
	"titanic-agent/internal/common/metrics"
)

var ErrNoChoices = errors.New("model returned no choices")

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client is a chat completion client for any OpenAI-compatible endpoint.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = commonhttp.NewClient(cfg.Timeout)

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat round and returns the first choice's message.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	// Temperature is omitempty: a plain 0 would fall back to the server default.
	if req.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(c.model, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrNoChoices
	}
	return resp.Choices[0].Message, nil
}
