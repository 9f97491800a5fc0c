package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/panel/internal/review"
)

// JSONWriter outputs reports as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) WriteReport(w io.Writer, report *review.Report) error {
	return writeJSON(w, report)
}

func (j *JSONWriter) WriteBatch(w io.Writer, batch *review.Batch) error {
	return writeJSON(w, batch)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
