package gpt

import (
	"context"
	"errors"
	"strings"
)

// New returns the Generator for engine: "openedai", a "gemini-*" model, or any
// other name as an OpenAI completions model.
func New(ctx context.Context, engine, apiKey string, opts ...ClientOption) (Generator, error) {
	switch {
	case engine == "":
		return nil, errors.New("engine is required")
	case engine == EngineOpenedAI:
		return NewClient(apiKey, opts...), nil
	case strings.HasPrefix(engine, "gemini"):
		return NewGeminiClient(ctx, apiKey, engine)
	default:
		return NewOpenAIClient(apiKey, engine, opts...), nil
	}
}
