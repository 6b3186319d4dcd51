package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig configures an OpenAI-compatible chat completions endpoint
// (OpenAI, Azure, Ollama, vLLM).
type OpenAIConfig struct {
	APIKey      string
	Endpoint    string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIProvider implements Completer over plain HTTP.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *OpenAIProvider) baseURL() string {
	if p.cfg.Endpoint != "" {
		return strings.TrimRight(p.cfg.Endpoint, "/")
	}
	return "https://api.openai.com/v1"
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.UserPrompt})

	body := openaiRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
	}
	if req.Format == FormatJSON {
		body.ResponseFormat = &openaiResponseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", transportError("openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", transportError("openai", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Kind:       kindForStatus(resp.StatusCode),
			Err:        errors.New(truncate(string(respBody), 300)),
		}
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &UpstreamError{Provider: "openai", Kind: ErrMalformedOutput, Err: err}
	}
	if parsed.Error != nil {
		return "", &UpstreamError{Provider: "openai", Kind: ErrUpstream, Err: errors.New(parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", &UpstreamError{Provider: "openai", Kind: ErrMalformedOutput, Err: errors.New("no choices in response")}
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
