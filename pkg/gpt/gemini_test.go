package gpt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func TestGeminiClient_Generate(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Where "}, {Text: "did you go?"}}},
		}},
	}}
	c := &GeminiClient{models: fake, model: "gemini-2.0-flash"}

	out, err := c.Generate(context.Background(), Request{Text: "Where is you?", OutputDesc: "Fixed", Temperature: 0.3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"generation":"Where did you go?"}`, out)
	assert.Equal(t, "Where is you?\nFixed:", fake.prompt)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.3, *fake.config.Temperature, 1e-6)
	assert.Equal(t, []string{"\n"}, fake.config.StopSequences)
}

func TestGeminiClient_ZeroTemperature(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "x"}}}}},
	}}
	c := &GeminiClient{models: fake, model: "gemini-2.0-flash"}

	_, err := c.Generate(context.Background(), Request{Text: "x", Temperature: 0})
	require.NoError(t, err)
	require.NotNil(t, fake.config.Temperature)
	assert.Zero(t, *fake.config.Temperature)
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeModels
	}{
		{name: "call fails", fake: &fakeModels{err: errors.New("quota")}},
		{name: "no candidates", fake: &fakeModels{resp: &genai.GenerateContentResponse{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &GeminiClient{models: tt.fake, model: "gemini-2.0-flash"}
			_, err := c.Generate(context.Background(), Request{Text: "x"})
			assert.ErrorIs(t, err, ErrAPI)
		})
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "gemini-2.0-flash")
	assert.Error(t, err)
}
