package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/panel/internal/review"
)

// Writer renders reports in a specific format.
type Writer interface {
	WriteReport(w io.Writer, report *review.Report) error
	WriteBatch(w io.Writer, batch *review.Batch) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Open returns the destination for output: the file at outPath, or stdout
// when outPath is empty. The caller must call the returned close function.
func Open(outPath string) (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *review.Report, format, outPath string) error {
	return write(format, outPath, func(wr Writer, w io.Writer) error { return wr.WriteReport(w, report) })
}

// WriteBatch writes the batch to the specified output (file path or stdout).
func WriteBatch(batch *review.Batch, format, outPath string) error {
	return write(format, outPath, func(wr Writer, w io.Writer) error { return wr.WriteBatch(w, batch) })
}

func write(format, outPath string, fn func(Writer, io.Writer) error) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	w, closeFn, err := Open(outPath)
	if err != nil {
		return err
	}
	if err := fn(writer, w); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
