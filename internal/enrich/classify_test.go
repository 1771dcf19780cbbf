package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type silentError struct{}

func (silentError) Error() string { return "" }

type kindedError struct{}

func (kindedError) Error() string { return "upstream said no" }
func (kindedError) Kind() string  { return "gpt.APIError" }

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "invalid input", err: fmt.Errorf("text column: %w", ErrInvalidInput), expected: "InvalidInputError"},
		{name: "decode", err: fmt.Errorf("%w: bad json", ErrDecode), expected: "ResponseDecodeError"},
		{name: "kind method wins", err: WithRaw(fmt.Errorf("call: %w", kindedError{}), "{}"), expected: "gpt.APIError"},
		{name: "deadline", err: context.DeadlineExceeded, expected: "TimeoutError"},
		{name: "innermost type", err: fmt.Errorf("wrap: %w", errors.New("plain")), expected: "*errors.errorString"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorKind(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	ok := Classify(TaskResult{Value: `{"generation":"hi"}`})
	assert.Equal(t, Outcome{Response: `{"generation":"hi"}`}, ok)

	failed := Classify(TaskResult{Err: WithRaw(fmt.Errorf("%w: status 500", ErrInvalidInput), "boom")})
	assert.Empty(t, failed.Response)
	assert.Equal(t, "invalid row input: status 500", failed.ErrorMessage)
	assert.Equal(t, "InvalidInputError", failed.ErrorType)
	assert.True(t, failed.HasRaw)
	assert.Equal(t, "boom", failed.ErrorRaw)

	noRaw := Classify(TaskResult{Err: ErrInvalidInput})
	assert.False(t, noRaw.HasRaw)

	silent := Classify(TaskResult{Err: silentError{}})
	assert.Equal(t, "enrich.silentError", silent.ErrorType)
	assert.Equal(t, "enrich.silentError", silent.ErrorMessage)
}

func TestSafeParse(t *testing.T) {
	got, err := SafeParse(`{"generation":"a"}`, ErrorHandlingFail)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"generation": "a"}, got)

	for _, raw := range []string{"not json", "", "[1,2]", "null"} {
		got, err = SafeParse(raw, ErrorHandlingLog)
		require.NoError(t, err, raw)
		assert.Empty(t, got, raw)

		_, err = SafeParse(raw, ErrorHandlingFail)
		assert.ErrorIs(t, err, ErrDecode, raw)
	}
}

func TestRowFailure(t *testing.T) {
	err := &RowFailure{Index: 1, Err: ErrInvalidInput}
	assert.Equal(t, "row 2: invalid row input", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}
