package recipe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gptenrich/internal/enrich"
	"gptenrich/pkg/gpt"
)

type fakeGenerator struct {
	mu       sync.Mutex
	requests []gpt.Request
	respond  func(gpt.Request) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, r gpt.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()
	return f.respond(r)
}

func echo(r gpt.Request) (string, error) {
	return `{"generation":"` + strings.ToUpper(r.Text) + `\nsecond line"}`, nil
}

func engineConfig(mode enrich.ErrorHandling) enrich.Config {
	return enrich.Config{
		ErrorHandling: mode,
		Concurrency:   2,
		Retry:         enrich.RetryPolicy{MaxAttempts: 2},
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{name: "generation with column", params: Params{Kind: KindGeneration, TextColumn: "text"}},
		{name: "generation output mode", params: Params{Kind: KindGeneration, OutputMode: true, NumOutputs: 3}},
		{name: "tasks without column", params: Params{Kind: KindTasks}, wantErr: true},
		{name: "output mode without count", params: Params{Kind: KindGeneration, OutputMode: true}, wantErr: true},
		{name: "tasks in output mode", params: Params{Kind: KindTasks, OutputMode: true, NumOutputs: 1}, wantErr: true},
		{name: "unknown kind", params: Params{Kind: "translate", TextColumn: "text"}, wantErr: true},
		{name: "temperature too high", params: Params{Kind: KindTasks, TextColumn: "text", Temperature: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParams_Naming(t *testing.T) {
	assert.Equal(t, "standard_american_english", Params{Kind: KindGeneration, OutputDesc: "Standard American English"}.OutputColumn())
	assert.Equal(t, "generation", Params{Kind: KindGeneration}.OutputColumn())
	assert.Equal(t, "generation", Params{Kind: KindTasks, OutputDesc: "Answer"}.OutputColumn())
	assert.Equal(t, "gpt", Params{Kind: KindGeneration}.Prefix())
	assert.Equal(t, "gpt_api", Params{Kind: KindTasks}.Prefix())
}

func TestRunner_Tasks(t *testing.T) {
	gen := &fakeGenerator{respond: echo}
	p := Params{
		Kind:       KindTasks,
		TextColumn: "text",
		Task:       "Shout.",
		InputDesc:  "Quiet",
		OutputDesc: "Loud",
		Examples:   []gpt.Example{{Input: "hi", Output: "HI"}},
	}
	r, err := NewRunner(p, engineConfig(enrich.ErrorHandlingLog), gen)
	require.NoError(t, err)

	in := enrich.NewTable("id", "text")
	in.AppendRow("1", "hello")
	in.AppendRow("2", "   ")
	in.AppendRow("3", nil)
	in.AppendRow("4", 42)

	out, err := r.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "text", "generation", "gpt_api_response", "gpt_api_error_message", "gpt_api_error_type"}, out.Table.Columns)
	assert.Equal(t, []any{"HELLO", "", "", ""}, out.Table.Column("generation"))
	assert.Equal(t, "{}", out.Table.Rows[1]["gpt_api_response"])
	assert.Equal(t, "{}", out.Table.Rows[2]["gpt_api_response"])
	assert.Equal(t, "InvalidInputError", out.Table.Rows[3]["gpt_api_error_type"])
	assert.Equal(t, "Generation based on 'text' column.", out.Descriptions["generation"])

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "Shout.\n\nQuiet: hi\nLoud: HI\nQuiet: hello\nLoud:", gpt.FormatPrompt(gen.requests[0]))
}

func TestRunner_GenerationSendsBlankText(t *testing.T) {
	gen := &fakeGenerator{respond: func(gpt.Request) (string, error) {
		return `{"generation":"filled in"}`, nil
	}}
	r, err := NewRunner(Params{Kind: KindGeneration, TextColumn: "text"}, engineConfig(enrich.ErrorHandlingLog), gen)
	require.NoError(t, err)

	in := enrich.NewTable("text")
	in.AppendRow("   ")
	in.AppendRow(nil)
	out, err := r.Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "   ", gen.requests[0].Text)
	assert.Equal(t, []any{"filled in", ""}, out.Table.Column("generation"))
	assert.Equal(t, "{}", out.Table.Rows[1]["gpt_response"])
}

func TestRunner_APIErrorsAreRetriedAndRecorded(t *testing.T) {
	gen := &fakeGenerator{respond: func(gpt.Request) (string, error) {
		return "", &gpt.APIError{Engine: "OpenedAI", StatusCode: 429, Body: `{"message":"Too many requests"}`}
	}}
	r, err := NewRunner(Params{Kind: KindGeneration, TextColumn: "text"}, engineConfig(enrich.ErrorHandlingLog), gen)
	require.NoError(t, err)

	in := enrich.NewTable("text")
	in.AppendRow("a")
	out, err := r.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Len(t, gen.requests, 2)
	row := out.Table.Rows[0]
	assert.Equal(t, "gpt.APIError", row["gpt_error_type"])
	assert.Equal(t, `{"message":"Too many requests"}`, row["gpt_error_raw"])
	assert.Contains(t, row["gpt_error_message"], "Error Code: 429")
	assert.Contains(t, out.Table.Columns, "gpt_error_raw")
}

func TestRunner_FailModeAborts(t *testing.T) {
	gen := &fakeGenerator{respond: func(r gpt.Request) (string, error) {
		if r.Text == "b" {
			return "", errors.New("connection reset")
		}
		return echo(r)
	}}
	cfg := engineConfig(enrich.ErrorHandlingFail)
	cfg.Concurrency = 1
	r, err := NewRunner(Params{Kind: KindGeneration, TextColumn: "text"}, cfg, gen)
	require.NoError(t, err)

	in := enrich.NewTable("text")
	in.AppendRow("a")
	in.AppendRow("b")
	in.AppendRow("c")

	out, err := r.Run(context.Background(), in)
	assert.Nil(t, out)
	var failure *enrich.RowFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.Index)
	// plain errors are not in the retry set
	assert.Len(t, gen.requests, 2)
}

func TestRunner_OutputMode(t *testing.T) {
	gen := &fakeGenerator{respond: func(gpt.Request) (string, error) {
		return `{"generation":"giraffe"}`, nil
	}}
	p := Params{
		Kind:       KindGeneration,
		Task:       "Name an animal.",
		InputDesc:  "ignored",
		OutputDesc: "Animal name",
		Examples:   []gpt.Example{{Input: "x", Output: "elephant"}},
		OutputMode: true,
		NumOutputs: 3,
	}
	r, err := NewRunner(p, engineConfig(enrich.ErrorHandlingLog), gen)
	require.NoError(t, err)

	out, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"animal_name", "gpt_response", "gpt_error_message", "gpt_error_type"}, out.Table.Columns)
	assert.Equal(t, []any{"giraffe", "giraffe", "giraffe"}, out.Table.Column("animal_name"))
	assert.Equal(t, "Generated text.", out.Descriptions["animal_name"])

	require.Len(t, gen.requests, 3)
	assert.Equal(t, "Name an animal.\n\nAnimal name: elephant\nAnimal name:", gpt.FormatPrompt(gen.requests[0]))
}

func TestRunner_MissingColumn(t *testing.T) {
	r, err := NewRunner(Params{Kind: KindTasks, TextColumn: "body"}, engineConfig(enrich.ErrorHandlingLog), &fakeGenerator{respond: echo})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), enrich.NewTable("text"))
	assert.ErrorIs(t, err, enrich.ErrConfig)
	assert.Contains(t, err.Error(), "column 'body' is not present")
}

func TestNewRunner_InvalidParams(t *testing.T) {
	_, err := NewRunner(Params{Kind: KindTasks}, engineConfig(enrich.ErrorHandlingLog), &fakeGenerator{respond: echo})
	assert.ErrorIs(t, err, enrich.ErrConfig)
}
