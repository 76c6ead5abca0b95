package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"report-backend/internal/llm"
	"report-backend/internal/shared/metrics"
	"report-backend/internal/shared/telemetry"
)

// Client implements llm.Gateway using OpenAI Chat Completions.
type Client struct {
	api *goopenai.Client
	cfg llm.Config
}

// NewClient constructs a new OpenAI client.
func NewClient(cfg llm.Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	clientCfg := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{api: goopenai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

// NewGateway returns the OpenAI client, or llm.Disabled when no key is configured.
func NewGateway(cfg llm.Config) (llm.Gateway, error) {
	if !cfg.Enabled() {
		return llm.Disabled{}, nil
	}
	return NewClient(cfg)
}

// Complete sends one chat completion request. Every failure wraps llm.ErrInferenceUnavailable.
func (c *Client) Complete(ctx context.Context, site llm.CallSite, prompt llm.Prompt) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req := c.buildRequest(site, prompt)
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	metrics.ObserveInferenceDurationMs(float64(duration.Milliseconds()))

	fields := map[string]any{
		"model":       c.cfg.Model,
		"call_site":   string(site),
		"duration_ms": duration.Milliseconds(),
		"prompt_size": prompt.Size(),
	}
	if err != nil {
		metrics.IncInferenceFailed()
		fields["status"] = statusCode(err)
		fields["error"] = err
		telemetry.Error("inference.call", fields)
		return "", fmt.Errorf("%w: %s", llm.ErrInferenceUnavailable, describe(err))
	}
	fields["prompt_tokens"] = resp.Usage.PromptTokens
	fields["completion_tokens"] = resp.Usage.CompletionTokens

	if len(resp.Choices) == 0 {
		metrics.IncInferenceFailed()
		telemetry.Error("inference.call", fields)
		return "", fmt.Errorf("%w: response missing choices", llm.ErrInferenceUnavailable)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		metrics.IncInferenceFailed()
		fields["finish_reason"] = string(resp.Choices[0].FinishReason)
		telemetry.Error("inference.call", fields)
		return "", fmt.Errorf("%w: empty completion", llm.ErrInferenceUnavailable)
	}
	telemetry.Info("inference.call", fields)
	return content, nil
}

func (c *Client) buildRequest(site llm.CallSite, prompt llm.Prompt) goopenai.ChatCompletionRequest {
	params := c.cfg.Params(site)
	req := goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	// Reasoning models reject max_tokens and any temperature other than 1.
	if isReasoningModel(c.cfg.Model) {
		req.MaxCompletionTokens = params.MaxTokens
		return req
	}
	req.MaxTokens = params.MaxTokens
	req.Temperature = params.Temperature
	return req
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range []string{"gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func describe(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	}
	if code := statusCode(err); code != 0 {
		return fmt.Sprintf("upstream status %d", code)
	}
	return "transport failure"
}

var _ llm.Gateway = (*Client)(nil)
