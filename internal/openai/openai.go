package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const DefaultModel = "gpt-4o-mini"

var ErrNoKey = errors.New("OpenAI API key is required")

type Options struct {
	Model string
	// Temperature is used as given; callers supply the default.
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
	// BaseURL overrides the API endpoint, for proxies and compatible servers.
	BaseURL string
}

// Client asks for a JSON object response. OpenAI cannot take our schema
// directly in this mode so the prompt carries it.
type Client struct {
	client *goopenai.Client
	opts   Options
	log    *zap.Logger
}

func NewClient(apiKey string, opts Options, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoKey
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxOutputTokens == 0 {
		opts.MaxOutputTokens = 4096
	}
	if log == nil {
		log = zap.NewNop()
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &Client{client: goopenai.NewClientWithConfig(cfg), opts: opts, log: log}, nil
}

func (c *Client) Name() string { return "openai/" + c.opts.Model }

// WantsSchemaInPrompt reports that the response schema must be spelled out in
// the prompt text.
func (c *Client) WantsSchemaInPrompt() bool { return true }

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	// The request drops a zero temperature as unset.
	temperature := c.opts.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.opts.MaxOutputTokens,
		Temperature: temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	c.log.Debug("openai response",
		zap.String("model", resp.Model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("tokens_in", resp.Usage.PromptTokens),
		zap.Int("tokens_out", resp.Usage.CompletionTokens))
	return content, nil
}
