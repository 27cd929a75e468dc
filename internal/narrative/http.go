package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	httpclient "pelviu-funnel/internal/common/http"
)

type HTTPConfig struct {
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
}

// HTTPGenerator posts prompts to a generic generation gateway
// (POST {base}/api/ai/generate, response {"text": ...}).
type HTTPGenerator struct {
	config HTTPConfig
	client *httpclient.Client
}

func NewHTTPGenerator(cfg HTTPConfig) *HTTPGenerator {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPGenerator{
		config: cfg,
		// Deadlines come from the caller's context.
		client: httpclient.NewClient(0),
	}
}

func (h *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}
	headers := map[string]string{}
	if h.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + h.config.APIKey
	}

	var resp *httpclient.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrGenerationTimeout
			}
		}

		resp, lastErr = h.client.PostJSON(ctx, h.config.BaseURL+"/api/ai/generate", headers, requestBody)
		if lastErr == nil {
			if resp.IsSuccess() {
				break
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", ErrGenerationTimeout
		}
	}

	if lastErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrGenerationTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := resp.DecodeJSON(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}
	return apiResponse.Text, nil
}
