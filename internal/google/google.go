package google

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"codeassist/internal/response"
)

const DefaultModel = "gemini-2.5-flash"

type Options struct {
	Model string
	// Temperature is used as given; callers supply the default.
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// Client calls Gemini with the response schema enforced server side.
type Client struct {
	pool *KeyPool
	opts Options
	log  *zap.Logger
}

func NewClient(keys []string, opts Options, log *zap.Logger) (*Client, error) {
	pool, err := NewKeyPool(keys)
	if err != nil {
		return nil, err
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
	return &Client{pool: pool, opts: opts, log: log}, nil
}

func (c *Client) Name() string { return "gemini/" + c.opts.Model }

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return out
}

func (c *Client) contentConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.opts.Temperature),
		MaxOutputTokens:  int32(c.opts.MaxOutputTokens),
		ResponseMIMEType: "application/json",
		ResponseSchema:   response.Schema(),
		SafetySettings:   safetySettings(),
	}
}

// Generate returns the raw response text. Blocked or empty candidates come back
// as an empty string; deciding what that means is up to the caller.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	key, err := c.pool.Borrow(ctx)
	if err != nil {
		return "", err
	}
	defer c.pool.Release(key)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(prompt), c.contentConfig())
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	fields := []zap.Field{
		zap.String("model", c.opts.Model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(text)),
	}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int32("tokens_in", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("tokens_out", resp.UsageMetadata.CandidatesTokenCount))
	}
	c.log.Debug("gemini response", fields...)
	return text, nil
}
