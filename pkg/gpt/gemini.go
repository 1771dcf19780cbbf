package gpt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentModel is the subset of genai.Models used here.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates text through the Gemini API.
type GeminiClient struct {
	models contentModel
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{models: client.Models, model: model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, r Request) (string, error) {
	temp := float32(r.Temperature)
	contents := []*genai.Content{
		genai.NewContentFromText(FormatPrompt(r), genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: openAIMaxTokens,
		StopSequences:   []string{"\n"},
	})
	if err != nil {
		return "", &APIError{Engine: "Gemini", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &APIError{Engine: "Gemini", Err: errors.New("no candidates returned")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return generationJSON(b.String())
}
