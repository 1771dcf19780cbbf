package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	openAIMaxTokens = 100
)

// OpenAIClient calls the legacy completions endpoint with a single-line stop.
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func NewOpenAIClient(apiKey, model string, opts ...ClientOption) *OpenAIClient {
	o := applyOptions(openAIBaseURL, opts)
	return &OpenAIClient{httpClient: o.httpClient, apiKey: apiKey, model: model, baseURL: o.url}
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stop        string  `json:"stop"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Generate(ctx context.Context, r Request) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Prompt:      FormatPrompt(r),
		Stop:        "\n",
		Temperature: r.Temperature,
		MaxTokens:   openAIMaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Engine: "OpenAI", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Engine: "OpenAI", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Engine: "OpenAI", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &APIError{Engine: "OpenAI", StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if parsed.Error != nil || len(parsed.Choices) == 0 {
		return "", &APIError{Engine: "OpenAI", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return generationJSON(parsed.Choices[0].Text)
}
