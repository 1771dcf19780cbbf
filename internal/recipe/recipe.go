package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gptenrich/internal/enrich"
	"gptenrich/pkg/gpt"
)

// emptyResponse is returned for rows with nothing to generate from.
const emptyResponse = "{}"

// CallAPI returns the row function sending one row's text to gen. Missing
// cells yield "{}" without a call; blank text does too for the tasks recipe
// only.
func CallAPI(gen gpt.Generator) enrich.ParamRowFunc[Params] {
	return func(ctx context.Context, row enrich.Row, p Params) (string, error) {
		var text string
		if p.TextColumn != "" && !p.OutputMode {
			switch v := row[p.TextColumn].(type) {
			case nil:
				return emptyResponse, nil
			case string:
				text = v
			default:
				return "", fmt.Errorf("%w: column %q holds %T, expected text", enrich.ErrInvalidInput, p.TextColumn, v)
			}
			if p.Kind == KindTasks && strings.TrimSpace(text) == "" {
				return emptyResponse, nil
			}
		}

		resp, err := gen.Generate(ctx, p.Request(text))
		if err != nil {
			var apiErr *gpt.APIError
			if errors.As(err, &apiErr) && apiErr.Body != "" {
				return "", enrich.WithRaw(err, apiErr.Body)
			}
			return "", err
		}
		return resp, nil
	}
}

// Formatter returns the derived column holding the first line of each
// generation.
func Formatter(p Params) *enrich.DerivedColumn {
	d := &enrich.DerivedColumn{
		Name:        p.OutputColumn(),
		Exact:       p.OutputMode,
		Description: fmt.Sprintf("Generation based on '%s' column.", p.TextColumn),
		Extract:     firstGeneratedLine,
	}
	if p.OutputMode {
		d.Description = "Generated text."
	}
	return d
}

func firstGeneratedLine(response string, mode enrich.ErrorHandling) (any, error) {
	parsed, err := enrich.SafeParse(response, mode)
	if err != nil {
		return nil, err
	}
	generation, _ := parsed["generation"].(string)
	first, _, _ := strings.Cut(generation, "\n")
	return first, nil
}

// InputTable returns in after checking its schema, or in output mode a table
// of NumOutputs empty rows with a single column named after the output column.
func InputTable(p Params, in *enrich.Table) (*enrich.Table, error) {
	if p.OutputMode {
		t := enrich.NewTable(p.OutputColumn())
		for range p.NumOutputs {
			t.AppendRow("")
		}
		return t, nil
	}
	if in == nil {
		return nil, fmt.Errorf("%w: an input dataset is required unless output mode is enabled", enrich.ErrConfig)
	}
	if err := p.ValidateColumn(in.Columns); err != nil {
		return nil, err
	}
	return in, nil
}

// Runner executes one recipe with a fixed engine configuration.
type Runner struct {
	params Params
	engine *enrich.Engine
	fn     enrich.RowFunc
	logger *slog.Logger
}

// NewRunner validates params and builds the engine. An empty column prefix
// defaults to the recipe's prefix and an empty retry set to gpt.ErrAPI.
func NewRunner(p Params, cfg enrich.Config, gen gpt.Generator, opts ...enrich.Option) (*Runner, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: no generator configured", enrich.ErrConfig)
	}
	fn, err := enrich.Bind(CallAPI(gen), p)
	if err != nil {
		return nil, err
	}
	if cfg.ColumnPrefix == "" {
		cfg.ColumnPrefix = p.Prefix()
	}
	if len(cfg.Retry.RetryOn) == 0 {
		cfg.Retry.RetryOn = []error{gpt.ErrAPI}
	}
	engine, err := enrich.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{params: p, engine: engine, fn: fn, logger: engine.Logger().With("recipe", p.Kind)}, nil
}

func (r *Runner) Params() Params { return r.params }

// Run enriches in. in may be nil in output mode.
func (r *Runner) Run(ctx context.Context, in *enrich.Table) (*enrich.Output, error) {
	table, err := InputTable(r.params, in)
	if err != nil {
		return nil, err
	}
	r.logger.Info("running recipe", "rows", table.Len(), "output_column", r.params.OutputColumn())
	return r.engine.Run(ctx, table, r.fn, Formatter(r.params))
}
