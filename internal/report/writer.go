package report

import (
	"io"

	"github.com/nao1215/tiebasign/internal/model"
)

// Writer renders run results in one output format.
type Writer interface {
	// WriteReport outputs the full report including per-forum details.
	WriteReport(report *model.Report) (int, error)

	// WriteSummary outputs only the condensed counts.
	WriteSummary(summary model.Summary) (int, error)
}

// MultiWriter writes to several Writers in order, for example the console
// and a step summary file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteReport outputs the report to every Writer and stops on the first error.
func (m *MultiWriter) WriteReport(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteReport(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to every Writer and stops on the first
// error.
func (m *MultiWriter) WriteSummary(summary model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runState describes how a run ended, for the status lines of the text
// formats.
func runState(report *model.Report) string {
	switch {
	case !report.Success:
		return "failed"
	case report.Processed() < report.Total:
		return "interrupted"
	case report.Failed > 0:
		return "completed with failures"
	default:
		return "complete"
	}
}
