package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
	"github.com/satriahrh/diet-coach/utils/retry"
)

// GeminiClient answers one-shot prompts through the genai SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	persona string
	retry   retry.Policy
}

var _ domain.Llm = (*GeminiClient)(nil)

// NewGeminiClient talks to the same base URL as the streamer. httpClient may be nil.
func NewGeminiClient(ctx context.Context, cfg StreamConfig, httpClient *http.Client) (*GeminiClient, error) {
	root, version := splitBaseURL(cfg.BaseURL)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    root,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	policy := cfg.Retry
	policy.Retryable = isGenaiRateLimited
	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		persona: cfg.Persona,
		retry:   policy,
	}, nil
}

// splitBaseURL turns "https://host/v1beta" into ("https://host", "v1beta"), the
// form the SDK expects. Without a trailing version segment the SDK default applies.
func splitBaseURL(base string) (root, version string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", ""
	}
	i := strings.LastIndex(base, "/")
	if i < 0 {
		return base, ""
	}
	last := base[i+1:]
	if len(last) >= 2 && last[0] == 'v' && last[1] >= '0' && last[1] <= '9' {
		return base[:i], last
	}
	return base, ""
}

func isGenaiRateLimited(err error) bool {
	var apiErr genai.APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	logger := log.WithCtx(ctx)
	var config *genai.GenerateContentConfig
	if g.persona != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.persona}}},
		}
	}

	policy := g.retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("gemini generate retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
	}

	var text string
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return text, nil
}
