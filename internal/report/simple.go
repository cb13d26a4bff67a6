package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/tiebasign/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs a plain-text report for terminals and e-mail.
type SimpleWriter struct {
	baseWriter

	// details lists every forum after the summary.
	details bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithDetails controls whether the per-forum list is written.
// It is on by default.
func WithDetails(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.details = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		details:    true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteReport outputs the report.
func (w *SimpleWriter) WriteReport(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	writeCounts(&sb, report.Total, report.Signed, report.AlreadySigned, report.Failed)
	if w.details && len(report.Details) > 0 {
		w.writeDetails(&sb, report.Details)
	}

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the counts only.
func (w *SimpleWriter) WriteSummary(summary model.Summary) (int, error) {
	var sb strings.Builder

	status := "complete"
	if !summary.Success {
		status = "failed"
	}
	fmt.Fprintf(&sb, "Time:           %s\n", summary.Time().Format(time.DateTime))
	fmt.Fprintf(&sb, "Status:         %s\n", status)
	writeCounts(&sb, summary.Total, summary.Signed, summary.AlreadySigned, summary.Failed)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         TIEBA SIGN REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	if !report.StartedAt.IsZero() {
		fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	}

	switch runState(report) {
	case "failed":
		fmt.Fprintf(sb, "Status:         FAILED - %s\n", report.Message)
	case "interrupted":
		fmt.Fprintf(sb, "Status:         INTERRUPTED (%d of %d forums)\n", report.Processed(), report.Total)
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

func writeCounts(sb *strings.Builder, total, signed, already, failed int) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  TOTAL:          %d\n", total)
	fmt.Fprintf(sb, "  SIGNED:         %d\n", signed)
	fmt.Fprintf(sb, "  ALREADY SIGNED: %d\n", already)
	fmt.Fprintf(sb, "  FAILED:         %d\n", failed)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDetails(sb *strings.Builder, details []model.Outcome) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nDETAILS\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	for _, d := range details {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", indicator(d.Status), d.Forum, d.Label)
	}
	sb.WriteString("\n")
}

func indicator(s model.Status) string {
	switch s {
	case model.StatusSigned:
		return "+"
	case model.StatusAlreadySigned:
		return "="
	default:
		return "!"
	}
}
