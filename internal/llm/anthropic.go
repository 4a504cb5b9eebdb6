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
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	anthropicModel   = "claude-3-5-haiku-latest"
)

// AnthropicClient implements the Client interface for Anthropic's Claude
// models via the Messages API.
type AnthropicClient struct {
	Config
	httpClient *http.Client
}

// anthropicResponse represents a response from Anthropic's API.
type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(config Config) *AnthropicClient {
	return &AnthropicClient{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return ProviderAnthropic
}

// ResolvedModel returns the model Complete would use for the request.
func (c *AnthropicClient) ResolvedModel(requested string) string {
	return c.resolveModel(requested, anthropicModel)
}

// Complete sends the prompt to Anthropic and returns the raw completion text.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if c.APIKey == "" {
		return "", &ProviderError{Provider: ProviderAnthropic, Message: "API key not provided"}
	}

	model := c.ResolvedModel(opts.Model)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	// Build the request as an open map so provider-specific keys from
	// opts.Extra ride along without a schema change.
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
		return "", &ProviderError{Provider: ProviderAnthropic, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	url := c.BaseURL
	if url == "" {
		url = anthropicAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", &ProviderError{Provider: ProviderAnthropic, Message: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderAnthropic, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderAnthropic, err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", statusError(ProviderAnthropic, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return "", &ProviderError{Provider: ProviderAnthropic, Message: fmt.Sprintf("unmarshaling response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := resp.Status
		if parsed.Error != nil {
			message = fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", statusError(ProviderAnthropic, resp.StatusCode, message)
	}
	if parsed.Error != nil {
		return "", &ProviderError{
			Provider: ProviderAnthropic,
			Message:  fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}

	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", &ProviderError{Provider: ProviderAnthropic, Message: "empty response"}
	}

	return parsed.Content[0].Text, nil
}
