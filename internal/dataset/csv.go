// Package dataset encodes tables as CSV and column descriptions as JSON.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gptenrich/internal/enrich"
)

// ReadCSV decodes a CSV document whose first record is the header. Empty cells
// are read as nil so they count as missing values.
func ReadCSV(r io.Reader) (*enrich.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	table := enrich.NewTable(header...)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(enrich.Row, len(header))
		for i, col := range header {
			if record[i] == "" {
				row[col] = nil
				continue
			}
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// WriteCSV encodes t with its columns as header.
func WriteCSV(w io.Writer, t *enrich.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = cell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Descriptions is the column-description document written next to an output
// dataset.
type Descriptions map[string]string

func WriteDescriptions(w io.Writer, d Descriptions) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func ReadDescriptions(r io.Reader) (Descriptions, error) {
	var d Descriptions
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode column descriptions: %w", err)
	}
	return d, nil
}
