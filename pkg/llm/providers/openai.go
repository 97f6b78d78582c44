package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
	"github.com/mikodusami/terminal-promptbuilder/pkg/httpclient"
	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

// openaiAPIBaseURL is the base URL for the OpenAI API.
const openaiAPIBaseURL = "https://api.openai.com/v1"

// openaiModels lists the models available through this provider.
// The first entry is the default.
var openaiModels = []llm.ModelInfo{
	{ID: "gpt-4.1", Name: "GPT-4.1", Description: "Most capable GPT model"},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", Description: "Balanced speed and capability"},
	{ID: "gpt-4.1-nano", Name: "GPT-4.1 Nano", Description: "Fastest and most cost-effective"},
	{ID: "o4-mini", Name: "o4-mini", Description: "Reasoning model for harder problems"},
	{ID: "gpt-4o", Name: "GPT-4o", Description: "Multimodal general-purpose model"},
}

// OpenAIProvider implements the Provider interface for OpenAI's Chat Completions API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, &errors.ConfigError{
			Key:    "openai.api_key",
			Reason: "API key is required for OpenAI provider",
		}
	}
	if baseURL == "" {
		baseURL = openaiAPIBaseURL
	}

	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 120 * time.Second
	cfg.UserAgent = "promptbuilder-openai/1.0"
	cfg.RetryAttempts = 0

	httpClient, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// NewOpenAIWithCredentials creates an OpenAI provider from credentials.
func NewOpenAIWithCredentials(creds llm.Credentials) (llm.Provider, error) {
	apiCreds, ok := creds.(llm.APIKeyCredentials)
	if !ok {
		return nil, &errors.ConfigError{
			Key:    "openai.credentials",
			Reason: "OpenAI provider requires API key credentials",
		}
	}
	if err := apiCreds.Validate(); err != nil {
		return nil, err
	}
	return NewOpenAIProvider(apiCreds.APIKey, apiCreds.BaseURL)
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Models returns the models available through this provider.
func (p *OpenAIProvider) Models() []llm.ModelInfo {
	models := make([]llm.ModelInfo, len(openaiModels))
	copy(models, openaiModels)
	return models
}

// DefaultModel returns the model used when a request does not name one.
func (p *OpenAIProvider) DefaultModel() string {
	return openaiModels[0].ID
}

// Complete sends a synchronous completion request to the Chat Completions API.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
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

	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.Prompt})

	apiReq := &openaiRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	start := time.Now()
	resp, err := p.doRequest(ctx, apiReq, requestID)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, &errors.ProviderError{
			Provider:  "openai",
			Message:   "response contained no choices",
			RequestID: requestID,
		}
	}

	return &llm.Response{
		Content:  resp.Choices[0].Message.Content,
		Provider: "openai",
		Model:    resp.Model,
		Usage: llm.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		LatencyMS: time.Since(start).Milliseconds(),
		RequestID: requestID,
		Created:   time.Now(),
	}, nil
}

// doRequest sends the API request and returns the decoded response body.
func (p *OpenAIProvider) doRequest(ctx context.Context, apiReq *openaiRequest, requestID string) (*openaiResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:  "openai",
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:  "openai",
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errors.ProviderError{
			Provider:  "openai",
			Message:   fmt.Sprintf("request failed: %v", err),
			RequestID: requestID,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ProviderError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read response: %v", err),
			RequestID:  requestID,
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openaiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, &errors.ProviderError{
				Provider:   "openai",
				StatusCode: resp.StatusCode,
				Message:    errResp.Error.Message,
				Suggestion: openaiSuggestionForStatus(resp.StatusCode),
				RequestID:  requestID,
			}
		}
		return nil, &errors.ProviderError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(respBody)),
			RequestID:  requestID,
		}
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &errors.ProviderError{
			Provider:  "openai",
			Message:   fmt.Sprintf("failed to parse response: %v", err),
			RequestID: requestID,
		}
	}

	return &apiResp, nil
}

// openaiSuggestionForStatus returns a helpful suggestion based on the status code.
func openaiSuggestionForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusUnauthorized:
		return "Check that your API key is valid and correctly configured"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Wait before sending another request"
	case http.StatusBadRequest:
		return "Review the request format and parameters"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return "OpenAI API is experiencing issues. Retry after a short delay"
	default:
		return "Check the OpenAI API documentation for more details"
	}
}

// openaiRequest represents the request body for the Chat Completions API.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

// openaiMessage represents a chat message.
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse represents the response from the Chat Completions API.
type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

// openaiChoice represents a completion choice.
type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openaiUsage represents token usage in the OpenAI API response.
type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openaiErrorResponse represents an error response from the OpenAI API.
type openaiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
