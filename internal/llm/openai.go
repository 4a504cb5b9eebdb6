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
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
	openaiModel  = "gpt-4o-mini"
)

// OpenAIClient implements the Client interface for OpenAI chat models.
type OpenAIClient struct {
	Config
	httpClient *http.Client
}

// openaiResponse represents a response from OpenAI's chat completions API.
type openaiResponse struct {
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

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(config Config) *OpenAIClient {
	return &OpenAIClient{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return ProviderOpenAI
}

// ResolvedModel returns the model Complete would use for the request.
func (c *OpenAIClient) ResolvedModel(requested string) string {
	return c.resolveModel(requested, openaiModel)
}

// Complete sends the prompt to OpenAI and returns the raw completion text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if c.APIKey == "" {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "API key not provided"}
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
		return "", &ProviderError{Provider: ProviderOpenAI, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	url := c.BaseURL
	if url == "" {
		url = openaiAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: fmt.Sprintf("creating request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderOpenAI, err)
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", statusError(ProviderOpenAI, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return "", &ProviderError{Provider: ProviderOpenAI, Message: fmt.Sprintf("unmarshaling response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := resp.Status
		if parsed.Error != nil {
			message = fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", statusError(ProviderOpenAI, resp.StatusCode, message)
	}
	if parsed.Error != nil {
		return "", &ProviderError{
			Provider: ProviderOpenAI,
			Message:  fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "empty response"}
	}

	return parsed.Choices[0].Message.Content, nil
}
