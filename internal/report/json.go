package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/tiebasign/internal/model"
)

// JSONWriter outputs the detailed report and the summary as JSON.
// Non-ASCII forum names are written as is, and HTML characters are not
// escaped.
type JSONWriter struct {
	baseWriter

	// indent is the per-level indentation; empty means compact output.
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the indentation string used for each nesting level.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces, the layout of the files the
// tool has always produced.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteReport outputs the detailed report.
func (w *JSONWriter) WriteReport(report *model.Report) (int, error) {
	return w.writeJSON(report)
}

// WriteSummary outputs the summary.
func (w *JSONWriter) WriteSummary(summary model.Summary) (int, error) {
	return w.writeJSON(summary)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
