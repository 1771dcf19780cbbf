package enrich

import (
	"encoding/json"
	"fmt"
)

// TaskResult is the outcome of one row: Err == nil means success.
type TaskResult struct {
	Index    int
	Value    string
	Err      error
	Attempts int
}

func (r TaskResult) Succeeded() bool { return r.Err == nil }

// Outcome is a row's classified reserved-column values.
type Outcome struct {
	Response     string
	ErrorMessage string
	ErrorType    string
	ErrorRaw     string
	HasRaw       bool
}

// Classify maps a task result onto the reserved column slots. A failure
// whose message is empty reports its kind as the message.
func Classify(res TaskResult) Outcome {
	if res.Err == nil {
		return Outcome{Response: res.Value}
	}
	o := Outcome{
		ErrorMessage: res.Err.Error(),
		ErrorType:    ErrorKind(res.Err),
	}
	if o.ErrorMessage == "" {
		o.ErrorMessage = o.ErrorType
	}
	o.ErrorRaw, o.HasRaw = RawDetail(res.Err)
	return o
}

// Values returns the row cells for rc. Unpopulated slots are empty strings.
func (o Outcome) Values(rc ReservedColumns) Row {
	return Row{
		rc.Response:     o.Response,
		rc.ErrorMessage: o.ErrorMessage,
		rc.ErrorType:    o.ErrorType,
		rc.ErrorRaw:     o.ErrorRaw,
	}
}

// SafeParse decodes a JSON object response. In LOG mode a malformed response
// yields an empty map and no error; in FAIL mode the error wraps ErrDecode.
func SafeParse(raw string, mode ErrorHandling) (map[string]any, error) {
	var out map[string]any
	err := json.Unmarshal([]byte(raw), &out)
	if err == nil && out != nil {
		return out, nil
	}
	if err == nil {
		err = fmt.Errorf("expected a JSON object, got %q", raw)
	}
	if mode == ErrorHandlingFail {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return map[string]any{}, nil
}
