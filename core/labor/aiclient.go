package labor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPClientConfig configures the AI estimation client.
type HTTPClientConfig struct {
	// BaseURL is the chat-completions style provider endpoint
	BaseURL string

	// APIKey authenticates against the provider
	APIKey string

	// Model is the provider model identifier
	Model string

	// Timeout bounds a single estimation call end to end
	Timeout time.Duration

	// MaxRetries is the retry budget for 429/5xx/transient failures
	MaxRetries int
}

// HTTPClient implements AIClient against a chat-completions style
// provider. It prompts for a strict JSON object and parses it out of
// the first choice.
type HTTPClient struct {
	cfg        HTTPClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates the AI estimation client. Returns an error
// when the endpoint or key is unconfigured so the caller can disable
// the AI path up front.
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ai estimator base url not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai estimator api key not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

const systemPrompt = `You are a master jeweler estimating manufacturing labor.
Reply with a single JSON object and nothing else:
{"hours": <number>, "complexity": "simple|moderate|complex|master", "reasoning": "<short>", "confidence": <0..1>}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// EstimateLabor implements AIClient.
func (c *HTTPClient) EstimateLabor(ctx context.Context, req Request) (AIResult, error) {
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return AIResult{}, fmt.Errorf("marshal estimation request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return AIResult{}, err
	}
	defer resp.Body.Close()

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return AIResult{}, fmt.Errorf("decode provider response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return AIResult{}, fmt.Errorf("provider returned no choices")
	}

	result, err := parseResult(chat.Choices[0].Message.Content)
	if err != nil {
		return AIResult{}, err
	}

	c.logger.Info("ai labor estimate completed",
		zap.Float64("hours", result.Hours),
		zap.String("complexity", result.Complexity),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// doWithRetry attempts the request up to MaxRetries+1 times, retrying
// only on transient network errors, 429 and 5xx, with exponential
// backoff and full jitter.
func (c *HTTPClient) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.doOnce(ctx, body)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if !isTransientNetError(err) {
				return nil, err
			}
			lastErr = err
		} else if !shouldRetryStatus(resp.StatusCode) {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				defer resp.Body.Close()
				return nil, fmt.Errorf("provider status %d", resp.StatusCode)
			}
			return resp, nil
		} else {
			lastErr = fmt.Errorf("provider status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt == maxAttempts-1 {
			break
		}

		backoff := computeBackoff(500*time.Millisecond, attempt)
		c.logger.Debug("retrying ai estimation",
			zap.Int("next_attempt", attempt+2),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown provider error")
	}
	return nil, fmt.Errorf("ai estimator: max retries (%d) exceeded: %w", maxAttempts, lastErr)
}

func (c *HTTPClient) doOnce(ctx context.Context, body []byte) (*http.Response, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(httpReq)
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Piece: %s, material %s.\n", req.JewelryType, req.Material)
	if req.HasStones {
		fmt.Fprintf(&b, "Stone setting required for %d stones.\n", req.StoneCount)
	}
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	b.WriteString("Estimate the manufacturing labor.")
	return b.String()
}

// parseResult extracts the JSON object from the model reply. Models
// sometimes wrap JSON in code fences or prose.
func parseResult(content string) (AIResult, error) {
	content = strings.TrimSpace(content)

	begin := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if begin == -1 || end == -1 || end < begin {
		return AIResult{}, fmt.Errorf("no JSON object in provider reply")
	}

	var result AIResult
	if err := json.Unmarshal([]byte(content[begin:end+1]), &result); err != nil {
		return AIResult{}, fmt.Errorf("parse provider reply: %w", err)
	}
	if result.Hours <= 0 {
		return AIResult{}, fmt.Errorf("provider reply has non-positive hours")
	}
	return result, nil
}

func isTransientNetError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial", "read", "write":
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"temporary failure",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

func shouldRetryStatus(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status >= 500 && status <= 599:
		return true
	default:
		return false
	}
}

// computeBackoff returns an exponential backoff with full jitter.
func computeBackoff(base time.Duration, attempt int) time.Duration {
	max := base << uint(attempt)
	if max > 10*time.Second {
		max = 10 * time.Second
	}
	return time.Duration(rand.Int63n(int64(max)) + 1)
}
