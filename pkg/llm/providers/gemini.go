package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
	"github.com/mikodusami/terminal-promptbuilder/pkg/httpclient"
	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

// geminiAPIBaseURL is the base URL for the Gemini API.
const geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiModels lists the models available through this provider.
// The first entry is the default.
var geminiModels = []llm.ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable Gemini model"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Balanced speed and capability"},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Description: "Fastest and most cost-effective"},
}

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiProvider creates a new Gemini provider instance.
func NewGeminiProvider(apiKey, baseURL string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, &errors.ConfigError{
			Key:    "google.api_key",
			Reason: "API key is required for Google provider",
		}
	}
	if baseURL == "" {
		baseURL = geminiAPIBaseURL
	}

	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 120 * time.Second
	cfg.UserAgent = "promptbuilder-gemini/1.0"
	cfg.RetryAttempts = 0

	httpClient, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// NewGeminiWithCredentials creates a Gemini provider from credentials.
func NewGeminiWithCredentials(creds llm.Credentials) (llm.Provider, error) {
	apiCreds, ok := creds.(llm.APIKeyCredentials)
	if !ok {
		return nil, &errors.ConfigError{
			Key:    "google.credentials",
			Reason: "Google provider requires API key credentials",
		}
	}
	if err := apiCreds.Validate(); err != nil {
		return nil, err
	}
	return NewGeminiProvider(apiCreds.APIKey, apiCreds.BaseURL)
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "google"
}

// Models returns the models available through this provider.
func (p *GeminiProvider) Models() []llm.ModelInfo {
	models := make([]llm.ModelInfo, len(geminiModels))
	copy(models, geminiModels)
	return models
}

// DefaultModel returns the model used when a request does not name one.
func (p *GeminiProvider) DefaultModel() string {
	return geminiModels[0].ID
}

// Complete sends a synchronous generateContent request to the Gemini API.
func (p *GeminiProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	requestID := uuid.New().String()

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &errors.ValidationError{
			Field:      "prompt",
			Message:    "completion request must have a prompt",
			Suggestion: "Provide a non-empty prompt",
		}
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	// Gemini has no separate system field in this endpoint; prepend
	// the system prompt to the user content.
	text := req.Prompt
	if req.SystemPrompt != "" {
		text = req.SystemPrompt + "\n\n" + req.Prompt
	}

	apiReq := &geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: text}}},
		},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
		},
	}

	start := time.Now()
	resp, err := p.doRequest(ctx, model, apiReq, requestID)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &errors.ProviderError{
			Provider:  "google",
			Message:   "response contained no candidates",
			RequestID: requestID,
		}
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	return &llm.Response{
		Content:  content.String(),
		Provider: "google",
		Model:    model,
		Usage: llm.TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		},
		LatencyMS: time.Since(start).Milliseconds(),
		RequestID: requestID,
		Created:   time.Now(),
	}, nil
}

// doRequest sends the API request and returns the decoded response body.
// The API key is passed as a query parameter per the Gemini API convention;
// the HTTP logging layer redacts it from logs.
func (p *GeminiProvider) doRequest(ctx context.Context, model string, apiReq *geminiRequest, requestID string) (*geminiResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:  "google",
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:  "google",
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errors.ProviderError{
			Provider:  "google",
			Message:   fmt.Sprintf("request failed: %v", err),
			RequestID: requestID,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:   "google",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &errors.ProviderError{
				Provider:   "google",
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
				Suggestion: geminiSuggestionForStatus(resp.StatusCode),
				RequestID:  requestID,
			}
		}
		return nil, &errors.ProviderError{
			Provider:   "google",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(respBody)),
			RequestID:  requestID,
		}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &errors.ProviderError{
			Provider:  "google",
			Message:   fmt.Sprintf("failed to parse response: %v", err),
			RequestID: requestID,
		}
	}

	return &apiResp, nil
}

// geminiSuggestionForStatus returns a helpful suggestion based on the status code.
func geminiSuggestionForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest, http.StatusForbidden:
		return "Check that your API key is valid and has access to the Gemini API"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Wait before sending another request"
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return "Gemini API is experiencing issues. Retry after a short delay"
	default:
		return "Check the Gemini API documentation for more details"
	}
}

// geminiRequest represents the request body for the generateContent endpoint.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// geminiContent represents a content entry in the Gemini API format.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a text part.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiGenerationConfig holds generation parameters.
type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiResponse represents the response from the generateContent endpoint.
type geminiResponse struct {
	Candidates    []geminiCandidate   `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

// geminiCandidate represents a generated candidate.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// geminiUsageMetadata represents token usage in the Gemini API response.
type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// geminiErrorResponse represents an error response from the Gemini API.
type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
