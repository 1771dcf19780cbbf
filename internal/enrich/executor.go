package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Recorder observes engine activity. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RowCompleted(success bool, kind string)
	RowRetried()
	RunCompleted(mode ErrorHandling, rows int, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RowCompleted(bool, string)                                {}
func (nopRecorder) RowRetried()                                              {}
func (nopRecorder) RunCompleted(ErrorHandling, int, time.Duration, error) {}

// PanicError is the row failure recorded when a row function panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("row function panicked: %v", e.Value) }
func (e *PanicError) Kind() string  { return "PanicError" }

// Engine runs row functions over tables. It is safe to share between
// goroutines; each Run is independent.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New validates cfg and returns an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ErrorHandling, _ = ParseErrorHandling(string(cfg.ErrorHandling))
	e := &Engine{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Logger() *slog.Logger { return e.logger }

// Run applies fn to every row of table and assembles the output. derived may be
// nil. Column names are resolved before any row is processed.
//
// In FAIL mode the first unrecoverable failure is returned as a *RowFailure and
// no output is produced. If ctx is canceled, Run returns ctx.Err().
func (e *Engine) Run(ctx context.Context, table *Table, fn RowFunc, derived *DerivedColumn) (out *Output, err error) {
	start := time.Now()
	if table == nil {
		table = NewTable()
	}
	defer func() {
		e.recorder.RunCompleted(e.cfg.ErrorHandling, table.Len(), time.Since(start), err)
	}()

	if fn == nil {
		return nil, fmt.Errorf("%w: nil row function", ErrConfig)
	}
	existing := table.Columns
	if derived != nil && derived.Exact && !table.HasColumn(derived.Name) {
		existing = append(append([]string(nil), existing...), derived.Name)
	}
	rc, err := ReserveColumns(existing, e.cfg.ColumnPrefix)
	if err != nil {
		return nil, err
	}
	derivedName, err := resolveDerived(derived, table.Columns, rc)
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting run",
		"rows", table.Len(),
		"mode", e.cfg.ErrorHandling,
		"concurrency", e.cfg.Concurrency,
		"batch_size", e.cfg.batchSize())

	results, err := e.execute(ctx, table.Rows, fn)
	if err != nil {
		e.logger.Error("run aborted", "error", err)
		return nil, err
	}

	out, err = assemble(table, results, rc, derived, derivedName, e.cfg.ErrorHandling)
	if err != nil {
		e.logger.Error("run aborted", "error", err)
		return nil, err
	}
	e.logger.Info("run finished",
		"rows", table.Len(),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
		"elapsed", time.Since(start))
	return out, nil
}

// execute dispatches rows in batches to at most Concurrency workers. Results
// are stored by row index so completion order does not matter.
func (e *Engine) execute(ctx context.Context, rows []Row, fn RowFunc) ([]TaskResult, error) {
	results := make([]TaskResult, len(rows))
	failFast := e.cfg.ErrorHandling == ErrorHandlingFail
	size := e.cfg.batchSize()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for start := 0; start < len(rows); start += size {
		if gctx.Err() != nil {
			break
		}
		end := min(start+size, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if gctx.Err() != nil {
					return nil
				}
				res := e.runRow(gctx, i, rows[i], fn)
				results[i] = res
				if !res.Succeeded() && failFast {
					return &RowFailure{Index: i, Err: res.Err}
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) runRow(ctx context.Context, index int, row Row, fn RowFunc) TaskResult {
	res := TaskResult{Index: index}
	res.Value, res.Err = e.cfg.Retry.Execute(ctx, func(ctx context.Context) (string, error) {
		res.Attempts++
		if res.Attempts > 1 {
			e.recorder.RowRetried()
			e.logger.Debug("retrying row", "row", index, "attempt", res.Attempts)
		}
		return callRow(ctx, fn, row.Clone())
	})
	if res.Err == nil && res.Value == "" {
		res.Err = ErrEmptyResponse
	}

	kind := ErrorKind(res.Err)
	e.recorder.RowCompleted(res.Succeeded(), kind)
	if !res.Succeeded() {
		e.logger.Warn("row failed",
			"row", index,
			"attempts", res.Attempts,
			"error_type", kind,
			"error", res.Err)
	}
	return res
}

func callRow(ctx context.Context, fn RowFunc, row Row) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx, row)
}
