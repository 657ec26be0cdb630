package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	askerrors "github.com/Malumbo21/askdb/internal/errors"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2000
	temperature      = 0.1
)

// Client implements Service with multiple provider support.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a completion client with the given configuration.
func NewClient(config Config) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	if err := c.Configure(config); err != nil {
		return nil, err
	}

	return c, nil
}

// SetTimeout overrides the per-request HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// Configure validates and applies the client configuration.
func (c *Client) Configure(config Config) error {
	if config.Provider == "" {
		return askerrors.New(askerrors.ErrTypeConfig, "llm provider is required")
	}

	if config.Model == "" {
		return askerrors.New(askerrors.ErrTypeConfig, "llm model is required")
	}

	switch config.Provider {
	case ProviderOpenAI:
		if config.APIKey == "" {
			return askerrors.New(askerrors.ErrTypeConfig, "API key is required for OpenAI provider").
				WithSuggestion("set ASKDB_LLM_API_KEY")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.openai.com/v1"
		}
	case ProviderAnthropic:
		if config.APIKey == "" {
			return askerrors.New(askerrors.ErrTypeConfig, "API key is required for Anthropic provider").
				WithSuggestion("set ASKDB_LLM_API_KEY")
		}

		if config.BaseURL == "" {
			config.BaseURL = "https://api.anthropic.com/v1"
		}
	case ProviderOllama, ProviderLocal:
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
	default:
		return askerrors.Newf(askerrors.ErrTypeConfig, "unsupported provider: %s", config.Provider)
	}

	c.config = config

	return nil
}

// Complete sends the prompt to the configured provider and returns the raw
// completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.Provider == "" {
		return "", askerrors.New(askerrors.ErrTypeConfig, "llm client not configured")
	}

	switch c.config.Provider {
	case ProviderOpenAI:
		return c.completeOpenAI(ctx, prompt)
	case ProviderAnthropic:
		return c.completeAnthropic(ctx, prompt)
	case ProviderOllama, ProviderLocal:
		return c.completeOllama(ctx, prompt)
	default:
		return "", askerrors.Newf(askerrors.ErrTypeConfig, "unsupported provider: %s", c.config.Provider)
	}
}

// OpenAI API structures.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (c *Client) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   defaultMaxTokens,
	}

	respBody, err := c.post(ctx, "/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	})
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to parse OpenAI response")
	}

	if response.Error != nil {
		return "", askerrors.Newf(askerrors.ErrTypeLLM, "OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", askerrors.New(askerrors.ErrTypeLLM, "no response from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

// Anthropic API structures.
type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: defaultMaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	respBody, err := c.post(ctx, "/messages", reqBody, map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to parse Anthropic response")
	}

	if response.Error != nil {
		return "", askerrors.Newf(askerrors.ErrTypeLLM, "Anthropic API error: %s", response.Error.Message)
	}

	if len(response.Content) == 0 {
		return "", askerrors.New(askerrors.ErrTypeLLM, "no response from Anthropic")
	}

	return response.Content[0].Text, nil
}

// Ollama API structures.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) completeOllama(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
	}

	respBody, err := c.post(ctx, "/api/generate", reqBody, nil)
	if err != nil {
		return "", err
	}

	var response ollamaResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to parse Ollama response")
	}

	if response.Error != "" {
		return "", askerrors.Newf(askerrors.ErrTypeLLM, "Ollama API error: %s", response.Error)
	}

	return response.Response, nil
}

// post sends a JSON request to the provider and returns the raw body.
func (c *Client) post(ctx context.Context, endpoint string, reqBody any, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, askerrors.Wrap(err, askerrors.ErrTypeLLM, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, askerrors.Wrap(err, askerrors.ErrTypeLLM, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, askerrors.Newf(askerrors.ErrTypeLLM,
			"API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

var _ Service = (*Client)(nil)
