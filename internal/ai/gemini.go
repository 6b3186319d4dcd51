package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Completer using Google's Gemini models.
type GeminiProvider struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiProvider{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	// One model handle per call: SystemInstruction and ResponseMIMEType are per request.
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(p.temperature)
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}
	if req.Format == FormatJSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &UpstreamError{Provider: "gemini", Kind: ErrMalformedOutput, Err: errors.New("no response candidates")}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(responseText.String()) == "" {
		return "", &UpstreamError{Provider: "gemini", Kind: ErrMalformedOutput, Err: errors.New("empty response text")}
	}
	return responseText.String(), nil
}

func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &UpstreamError{Provider: "gemini", Kind: ErrMalformedOutput, Err: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPCode()
		switch apiErr.GRPCStatus().Code() {
		case codes.ResourceExhausted:
			status = http.StatusTooManyRequests
		case codes.DeadlineExceeded:
			status = http.StatusGatewayTimeout
		case codes.Unavailable:
			status = http.StatusServiceUnavailable
		case codes.Internal, codes.Unknown:
			if status <= 0 {
				status = http.StatusInternalServerError
			}
		}
		if status > 0 {
			return &UpstreamError{Provider: "gemini", StatusCode: status, Kind: kindForStatus(status), Err: err}
		}
	}
	return transportError("gemini", err)
}
