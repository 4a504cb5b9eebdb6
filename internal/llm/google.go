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
	googleAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"
	googleModel  = "gemini-1.5-flash"
)

// GoogleClient implements the Client interface for Google's Gemini models.
// Google's request schema differs from the chat-completions shape, so the
// Extra option bag is ignored here.
type GoogleClient struct {
	Config
	httpClient *http.Client
}

// googleRequest represents a generateContent request.
type googleRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
		Role string `json:"role,omitempty"`
	} `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int     `json:"maxOutputTokens"`
		Temperature     float64 `json:"temperature"`
	} `json:"generationConfig"`
}

// googleResponse represents a generateContent response.
type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGoogleClient creates a new Google client.
func NewGoogleClient(config Config) *GoogleClient {
	return &GoogleClient{
		Config: config,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Name returns the provider name.
func (c *GoogleClient) Name() string {
	return ProviderGoogle
}

// ResolvedModel returns the model Complete would use for the request.
func (c *GoogleClient) ResolvedModel(requested string) string {
	return c.resolveModel(requested, googleModel)
}

// Complete sends the prompt to Google and returns the raw completion text.
func (c *GoogleClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	if c.APIKey == "" {
		return "", &ProviderError{Provider: ProviderGoogle, Message: "API key not provided"}
	}

	model := c.ResolvedModel(opts.Model)

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	var reqBody googleRequest
	reqBody.Contents = []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
		Role string `json:"role,omitempty"`
	}{
		{
			Parts: []struct {
				Text string `json:"text"`
			}{{Text: prompt}},
			Role: "user",
		},
	}
	reqBody.GenerationConfig.MaxOutputTokens = maxTokens
	reqBody.GenerationConfig.Temperature = opts.Temperature

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGoogle, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	base := c.BaseURL
	if base == "" {
		base = googleAPIURL
	}

	// API key travels in the URL for this provider.
	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", base, model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(string(reqJSON)))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGoogle, Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderGoogle, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderGoogle, err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", statusError(ProviderGoogle, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return "", &ProviderError{Provider: ProviderGoogle, Message: fmt.Sprintf("unmarshaling response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := resp.Status
		if parsed.Error != nil {
			message = fmt.Sprintf("%s: %s", parsed.Error.Status, parsed.Error.Message)
		}
		return "", statusError(ProviderGoogle, resp.StatusCode, message)
	}
	if parsed.Error != nil {
		return "", &ProviderError{
			Provider: ProviderGoogle,
			Message:  fmt.Sprintf("%s: %s", parsed.Error.Status, parsed.Error.Message),
		}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Provider: ProviderGoogle, Message: "empty response"}
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", &ProviderError{Provider: ProviderGoogle, Message: "empty response"}
	}

	return text, nil
}
