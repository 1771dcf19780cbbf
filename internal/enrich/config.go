package enrich

import (
	"fmt"
	"strings"
)

// ErrorHandling selects between row-local error capture and whole-run abort.
type ErrorHandling string

const (
	ErrorHandlingLog  ErrorHandling = "LOG"
	ErrorHandlingFail ErrorHandling = "FAIL"
)

// ParseErrorHandling accepts "log" or "fail" in any case.
func ParseErrorHandling(s string) (ErrorHandling, error) {
	switch m := ErrorHandling(strings.ToUpper(strings.TrimSpace(s))); m {
	case ErrorHandlingLog, ErrorHandlingFail:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown error handling mode %q", ErrConfig, s)
}

// Config is the per-run engine configuration. It is built once and passed by
// value; the engine holds no process-wide state.
type Config struct {
	ErrorHandling ErrorHandling
	// Concurrency is the worker pool size.
	Concurrency int
	// BatchSize groups rows per dispatched task. Zero means one row per task.
	BatchSize    int
	ColumnPrefix string
	Retry        RetryPolicy
}

func (c Config) Validate() error {
	if _, err := ParseErrorHandling(string(c.ErrorHandling)); err != nil {
		return err
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency limit must be positive, got %d", ErrConfig, c.Concurrency)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative, got %d", ErrConfig, c.BatchSize)
	}
	return c.Retry.Validate()
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return 1
	}
	return c.BatchSize
}
