// Package recipe holds the text-generation recipes run on top of the enrich
// engine: typed parameters, the row function calling a gpt.Generator, and the
// formatter extracting the generated text into its own column.
package recipe

import (
	"errors"
	"fmt"
	"strings"

	"gptenrich/internal/enrich"
	"gptenrich/pkg/gpt"
)

// Kind selects a recipe variant.
type Kind string

const (
	// KindGeneration generates text per row, or from examples alone in output mode.
	KindGeneration Kind = "generation"
	// KindTasks applies a single-example task to a required text column.
	KindTasks Kind = "tasks"
)

const defaultOutputColumn = "generation"

// Params is the typed parameter record shared by the row function and the
// formatter. It is validated once before a run starts.
type Params struct {
	Kind        Kind
	TextColumn  string
	Task        string
	InputDesc   string
	OutputDesc  string
	Examples    []gpt.Example
	Temperature float64
	// OutputMode generates NumOutputs rows without an input dataset.
	OutputMode bool
	NumOutputs int
}

func (p Params) Validate() error {
	var errs []error
	switch p.Kind {
	case KindGeneration:
	case KindTasks:
		if p.OutputMode {
			errs = append(errs, errors.New("output mode is only available for the generation recipe"))
		}
		if len(p.Examples) > 1 {
			errs = append(errs, fmt.Errorf("tasks recipe takes a single example, got %d", len(p.Examples)))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown recipe %q", p.Kind))
	}
	if p.OutputMode {
		if p.NumOutputs < 1 {
			errs = append(errs, fmt.Errorf("num_outputs must be positive in output mode, got %d", p.NumOutputs))
		}
	} else if strings.TrimSpace(p.TextColumn) == "" {
		errs = append(errs, errors.New("you must specify a valid column name"))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %v", p.Temperature))
	}
	return errors.Join(errs...)
}

// Prefix is the column prefix for the reserved columns.
func (p Params) Prefix() string {
	if p.Kind == KindTasks {
		return "gpt_api"
	}
	return "gpt"
}

// OutputColumn is the desired name of the generated text column.
func (p Params) OutputColumn() string {
	if p.Kind == KindGeneration && p.OutputDesc != "" {
		return strings.ReplaceAll(strings.ToLower(p.OutputDesc), " ", "_")
	}
	return defaultOutputColumn
}

// Request builds the generation request for one row's text.
func (p Params) Request(text string) gpt.Request {
	req := gpt.Request{
		Task:        p.Task,
		Text:        text,
		InputDesc:   p.InputDesc,
		OutputDesc:  p.OutputDesc,
		Examples:    p.Examples,
		Temperature: p.Temperature,
	}
	if p.OutputMode {
		// only example outputs are shown when there is no input column
		req.InputDesc = ""
		req.Text = ""
		req.Examples = make([]gpt.Example, 0, len(p.Examples))
		for _, ex := range p.Examples {
			req.Examples = append(req.Examples, gpt.Example{Output: ex.Output})
		}
	}
	return req
}

// ValidateColumn checks that the text column exists in the input schema.
func (p Params) ValidateColumn(columns []string) error {
	if p.OutputMode {
		return nil
	}
	if p.TextColumn == "" {
		return fmt.Errorf("%w: you must specify a valid column name", enrich.ErrConfig)
	}
	for _, c := range columns {
		if c == p.TextColumn {
			return nil
		}
	}
	return fmt.Errorf("%w: column '%s' is not present in the input dataset", enrich.ErrConfig, p.TextColumn)
}
