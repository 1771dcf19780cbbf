package enrich

import (
	"context"
	"fmt"
)

// RowFunc turns one row into a response string or fails. It is called from
// several goroutines at once and must not retain the row.
type RowFunc func(ctx context.Context, row Row) (string, error)

// ParamRowFunc is a row function taking a typed parameters record.
type ParamRowFunc[P any] func(ctx context.Context, row Row, params P) (string, error)

// Validator is implemented by parameter records.
type Validator interface {
	Validate() error
}

// Bind validates params once and closes fn over them.
func Bind[P Validator](fn ParamRowFunc[P], params P) (RowFunc, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil row function", ErrConfig)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return func(ctx context.Context, row Row) (string, error) {
		return fn(ctx, row, params)
	}, nil
}
