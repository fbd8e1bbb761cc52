package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/diet-coach/domain"
	"github.com/satriahrh/diet-coach/utils/log"
	"github.com/satriahrh/diet-coach/utils/retry"
)

const (
	// RateLimitedMessage replaces the reply once rate-limit retries are spent.
	RateLimitedMessage = "⚠️ The AI service is receiving too many requests. Please try again in a moment."
	// ErrorMessagePrefix precedes the error text of any other failure.
	ErrorMessagePrefix = "An error occurred: "

	maxChunkSize     = 10 * 1024 * 1024
	maxErrorBodySize = 64 * 1024
)

// StreamConfig is the immutable upstream configuration of a GeminiStreamer.
type StreamConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Persona string
	Retry   retry.Policy
}

// RateLimitError is an HTTP 429 from the upstream. It is the only retryable failure.
type RateLimitError struct {
	Body string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("gemini rate limited (429): %s", e.Body)
}

// UpstreamError is any other non-2xx upstream response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// GeminiStreamer proxies prompts to the streamGenerateContent endpoint and
// hands the generated text back fragment by fragment.
type GeminiStreamer struct {
	cfg        StreamConfig
	httpClient *http.Client
}

var _ domain.ChatStreamer = (*GeminiStreamer)(nil)

func NewGeminiStreamer(cfg StreamConfig, httpClient *http.Client) *GeminiStreamer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Retry.Retryable = IsRateLimited
	return &GeminiStreamer{cfg: cfg, httpClient: httpClient}
}

type textPart struct {
	Text string `json:"text"`
}

type contentParts struct {
	Parts []textPart `json:"parts"`
}

type streamRequest struct {
	SystemInstruction contentParts   `json:"system_instruction"`
	Contents          []contentParts `json:"contents"`
}

func buildStreamRequest(persona, prompt string) streamRequest {
	return streamRequest{
		SystemInstruction: contentParts{Parts: []textPart{{Text: persona}}},
		Contents:          []contentParts{{Parts: []textPart{{Text: prompt}}}},
	}
}

func (g *GeminiStreamer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		g.cfg.BaseURL, url.PathEscape(g.cfg.Model), url.QueryEscape(g.cfg.APIKey))
}

// Stream implements domain.ChatStreamer.
func (g *GeminiStreamer) Stream(ctx context.Context, prompt string) <-chan string {
	out := make(chan string)
	ctx = log.WithStreamID(ctx, uuid.NewString())

	go func() {
		defer close(out)

		logger := log.WithCtx(ctx)
		logger.Info("gemini stream started", zap.Int("prompt_len", len(prompt)))
		start := time.Now()

		emit := func(fragment string) bool {
			select {
			case out <- fragment:
				return true
			case <-ctx.Done():
				return false
			}
		}

		policy := g.cfg.Retry
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("gemini request retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.String("error", g.redact(err.Error())))
		}

		fragments := 0
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			return g.streamOnce(ctx, prompt, func(fragment string) bool {
				fragments++
				return emit(fragment)
			})
		})

		switch {
		case err == nil:
			logger.Info("gemini stream completed",
				zap.Int("fragments", fragments),
				zap.Duration("elapsed", time.Since(start)))
		case ctx.Err() != nil:
			logger.Info("gemini stream cancelled by caller", zap.String("error", g.redact(err.Error())))
		default:
			msg := g.redact(degradedMessage(err))
			logger.Error("gemini stream failed", zap.String("error", g.redact(err.Error())))
			emit(msg)
		}
	}()

	return out
}

// redactRequestError masks the API key carried in the query string of a
// *url.Error so it never reaches a fragment or a log line.
func redactRequestError(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		q := u.Query()
		if q.Has("key") {
			q.Del("key")
			raw := q.Encode()
			if raw != "" {
				raw += "&"
			}
			u.RawQuery = raw + "key=***"
		}
		uerr.URL = u.String()
	} else {
		uerr.URL = "(redacted)"
	}
	return err
}

// redact removes any remaining occurrence of the API key from text.
func (g *GeminiStreamer) redact(text string) string {
	if g.cfg.APIKey == "" {
		return text
	}
	text = strings.ReplaceAll(text, g.cfg.APIKey, "***")
	return strings.ReplaceAll(text, url.QueryEscape(g.cfg.APIKey), "***")
}

func degradedMessage(err error) string {
	if IsRateLimited(err) {
		return RateLimitedMessage
	}
	return ErrorMessagePrefix + err.Error()
}

// streamOnce issues one upstream request and forwards fragments to emit until
// the body ends. emit returning false stops reading.
func (g *GeminiStreamer) streamOnce(ctx context.Context, prompt string, emit func(string) bool) error {
	body, err := json.Marshal(buildStreamRequest(g.cfg.Persona, prompt))
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", redactRequestError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if resp.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Body: string(b)}
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	logger := log.WithCtx(ctx)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkSize)
	for scanner.Scan() {
		payload, ok := ssePayload(scanner.Text())
		if !ok {
			continue
		}
		logger.Debug("gemini chunk", zap.String("payload", payload))

		text, err := extractFragment(payload)
		if err != nil {
			logger.Warn("skipping unparsable gemini chunk", zap.String("payload", payload), zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}
		if !emit(text) {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
