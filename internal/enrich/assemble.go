package enrich

import (
	"fmt"
	"slices"
)

// DerivedColumn is an extra business column computed from each successful
// response, placed before the reserved columns.
type DerivedColumn struct {
	// Name is the desired column name. Unless Exact is set it is made unique
	// against the input and reserved columns.
	Name  string
	Exact bool
	// Description is emitted alongside the reserved column descriptions.
	Description string
	// Extract computes the cell from a successful raw response. In FAIL mode
	// an error aborts the run; in LOG mode the cell is left empty.
	Extract func(response string, mode ErrorHandling) (any, error)
}

// Output is the assembled result of a run.
type Output struct {
	Table *Table
	// Columns are the resolved reserved names. Not all of them are
	// necessarily present in Table.
	Columns       ReservedColumns
	DerivedColumn string
	// Descriptions covers every reserved or derived column present in Table.
	Descriptions map[string]string
	Succeeded    int
	Failed       int
}

func resolveDerived(d *DerivedColumn, columns []string, rc ReservedColumns) (string, error) {
	if d == nil {
		return "", nil
	}
	if d.Name == "" {
		return "", fmt.Errorf("%w: derived column has no name", ErrConfig)
	}
	if d.Exact {
		return d.Name, nil
	}
	return UniqueName(d.Name, nameSet(append(slices.Clone(columns), rc.Names()...)), "")
}

// keptColumns returns the reserved columns that survive into the output:
// error_message and error_type only in LOG mode, error_raw only when some row
// supplied raw detail.
func keptColumns(rc ReservedColumns, mode ErrorHandling, anyRaw bool) []string {
	kept := []string{rc.Response}
	if mode == ErrorHandlingLog {
		kept = append(kept, rc.ErrorMessage, rc.ErrorType)
	}
	if anyRaw {
		kept = append(kept, rc.ErrorRaw)
	}
	return kept
}

func assemble(in *Table, results []TaskResult, rc ReservedColumns, derived *DerivedColumn, derivedName string, mode ErrorHandling) (*Output, error) {
	outcomes := make([]Outcome, len(results))
	anyRaw := false
	out := &Output{Columns: rc, DerivedColumn: derivedName, Descriptions: map[string]string{}}
	for i, res := range results {
		outcomes[i] = Classify(res)
		anyRaw = anyRaw || outcomes[i].HasRaw
		if res.Succeeded() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}

	columns := slices.Clone(in.Columns)
	if derived != nil && !slices.Contains(columns, derivedName) {
		columns = append(columns, derivedName)
	}
	kept := keptColumns(rc, mode, anyRaw)
	columns = append(columns, kept...)

	rows := make([]Row, len(in.Rows))
	for i, src := range in.Rows {
		row := src.Clone()
		if derived != nil {
			var v any = ""
			if results[i].Succeeded() && derived.Extract != nil {
				var err error
				v, err = derived.Extract(results[i].Value, mode)
				if err != nil && mode == ErrorHandlingFail {
					return nil, &RowFailure{Index: i, Err: err}
				}
				if err != nil {
					v = ""
				}
			}
			row[derivedName] = v
		}
		values := outcomes[i].Values(rc)
		for _, c := range kept {
			row[c] = values[c]
		}
		rows[i] = row
	}
	out.Table = &Table{Columns: columns, Rows: rows}

	descriptions := rc.Descriptions()
	for _, c := range kept {
		out.Descriptions[c] = descriptions[c]
	}
	if derived != nil && derived.Description != "" {
		out.Descriptions[derivedName] = derived.Description
	}
	return out, nil
}
