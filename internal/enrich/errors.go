package enrich

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a row whose content fails a precondition of the
	// row function. It is never retried.
	ErrInvalidInput = errors.New("invalid row input")
	// ErrDecode marks a successful response that could not be decoded.
	ErrDecode = errors.New("malformed response")
	// ErrConfig marks invalid engine parameters. Always fatal before any row runs.
	ErrConfig = errors.New("invalid configuration")
	// ErrEmptyResponse marks a row function that succeeded with "". Such a
	// row is recorded as a failure so it always carries an error message.
	ErrEmptyResponse = errors.New("row function returned an empty response")
)

// errorKinds names the sentinel errors in the error_type column.
var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrInvalidInput, "InvalidInputError"},
	{ErrDecode, "ResponseDecodeError"},
	{ErrConfig, "ConfigurationError"},
	{ErrEmptyResponse, "EmptyResponseError"},
	{context.DeadlineExceeded, "TimeoutError"},
	{context.Canceled, "CanceledError"},
}

// RowError carries the raw detail a row function wants written to the
// error_raw column.
type RowError struct {
	Err error
	Raw string
}

func (e *RowError) Error() string { return e.Err.Error() }
func (e *RowError) Unwrap() error { return e.Err }

// WithRaw attaches raw detail to err. A nil err stays nil.
func WithRaw(err error, raw string) error {
	if err == nil {
		return nil
	}
	return &RowError{Err: err, Raw: raw}
}

// RawDetail returns the raw detail attached with WithRaw, if any.
func RawDetail(err error) (string, bool) {
	var re *RowError
	if errors.As(err, &re) && re.Raw != "" {
		return re.Raw, true
	}
	return "", false
}

type kinder interface {
	Kind() string
}

// ErrorKind returns the identifier written to the error_type column. An error
// in the chain exposing Kind() wins, then the package sentinels, then the Go
// type of the innermost error.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.target) {
			return ek.kind
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}

// RowFailure is returned by Engine.Run in FAIL mode. Index is the 0-based
// position of the row that aborted the run.
type RowFailure struct {
	Index int
	Err   error
}

func (e *RowFailure) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index+1, e.Err)
}

func (e *RowFailure) Unwrap() error { return e.Err }
