package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	EngineOpenedAI = "openedai"

	openedAIURL  = "https://gpt-text-generation.p.rapidapi.com/completions"
	openedAIHost = "gpt-text-generation.p.rapidapi.com"
)

// Generator produces a raw JSON response carrying a "generation" key.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client talks to the OpenedAI completions endpoint on RapidAPI.
type Client struct {
	httpClient *http.Client
	apiKey     string
	url        string
}

type clientOptions struct {
	httpClient *http.Client
	url        string
}

// ClientOption configures the HTTP based generators.
type ClientOption func(*clientOptions)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithURL overrides the endpoint (OpenedAI) or base URL (OpenAI).
func WithURL(u string) ClientOption {
	return func(o *clientOptions) { o.url = u }
}

func applyOptions(defaultURL string, opts []ClientOption) clientOptions {
	o := clientOptions{httpClient: http.DefaultClient, url: defaultURL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	o := applyOptions(openedAIURL, opts)
	return &Client{httpClient: o.httpClient, apiKey: apiKey, url: o.url}
}

type openedAIRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

// Generate returns the response body unchanged when it carries a generation.
// Anything else is an *APIError with the status code and body.
func (c *Client) Generate(ctx context.Context, r Request) (string, error) {
	payload, err := json.Marshal(openedAIRequest{Prompt: FormatPrompt(r), Temperature: r.Temperature})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", openedAIHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Engine: "OpenedAI", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Engine: "OpenedAI", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	text := string(body)
	if resp.StatusCode >= http.StatusBadRequest || !strings.Contains(text, `"generation"`) {
		return "", &APIError{Engine: "OpenedAI", StatusCode: resp.StatusCode, Body: text}
	}
	return text, nil
}

// generationJSON wraps a plain completion into the common response shape.
func generationJSON(text string) (string, error) {
	out, err := json.Marshal(map[string]string{"generation": text})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
