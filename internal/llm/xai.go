package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	xaiAPIURL = "https://api.x.ai/v1/chat/completions"
	xaiModel  = "grok-2-latest"
)

// XAIClient implements the Client interface for X.AI's Grok models. The API
// is OpenAI compatible.
type XAIClient struct {
	Config
	httpClient *http.Client
}

// xaiResponse represents a response from X.AI's API (OpenAI compatible).
type xaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewXAIClient creates a new X.AI client.
func NewXAIClient(config Config) *XAIClient {
	return &XAIClient{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name.
func (c *XAIClient) Name() string {
	return ProviderXAI
}

// ResolvedModel returns the model Complete would use for the request.
func (c *XAIClient) ResolvedModel(requested string) string {
	return c.resolveModel(requested, xaiModel)
}

// Complete sends the prompt to X.AI and returns the raw completion text.
func (c *XAIClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if c.APIKey == "" {
		return "", &ProviderError{Provider: ProviderXAI, Message: "API key not provided"}
	}

	model := c.ResolvedModel(opts.Model)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": opts.Temperature,
	}
	for k, v := range opts.Extra {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}

	reqJSON, err := json.Marshal(body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderXAI, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	url := c.BaseURL
	if url == "" {
		url = xaiAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", &ProviderError{Provider: ProviderXAI, Message: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderXAI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderXAI, err)
	}

	var parsed xaiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", statusError(ProviderXAI, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return "", &ProviderError{Provider: ProviderXAI, Message: fmt.Sprintf("unmarshaling response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := resp.Status
		if parsed.Error != nil {
			message = fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", statusError(ProviderXAI, resp.StatusCode, message)
	}
	if parsed.Error != nil {
		return "", &ProviderError{
			Provider: ProviderXAI,
			Message:  fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ProviderError{Provider: ProviderXAI, Message: "empty response"}
	}

	return parsed.Choices[0].Message.Content, nil
}
