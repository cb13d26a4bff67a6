package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/tiebasign/internal/model"
)

// MarkdownWriter outputs a run summary in GitHub-flavored markdown, the
// format of $GITHUB_STEP_SUMMARY.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteReport outputs the report with a chart and the per-forum table.
func (w *MarkdownWriter) WriteReport(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCounts(md, report.Total, report.Signed, report.AlreadySigned, report.Failed)
	if report.Processed() > 0 {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
	w.writeDetails(md, report.Details)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the counts table only.
func (w *MarkdownWriter) WriteSummary(summary model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2("Tieba Sign Summary")
	md.PlainText("")
	md.PlainTextf("Run at %s", summary.Time().UTC().Format(time.RFC3339))
	md.PlainText("")
	w.writeCounts(md, summary.Total, summary.Signed, summary.AlreadySigned, summary.Failed)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Tieba Sign Report")
	md.PlainText("")

	rows := [][]string{}
	if !report.StartedAt.IsZero() {
		rows = append(rows,
			[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			[]string{"Duration", report.Duration().Round(time.Millisecond).String()},
		)
	}
	rows = append(rows, []string{"Status", statusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(report *model.Report) string {
	switch runState(report) {
	case "failed":
		return "❌ Failed - " + escapeCell(report.Message)
	case "interrupted":
		return "⚠️ Interrupted (" + strconv.Itoa(report.Processed()) + " of " + strconv.Itoa(report.Total) + ")"
	case "completed with failures":
		return "⚠️ Completed with failures"
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, total, signed, already, failed int) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Result", "Forums"},
		Rows: [][]string{
			{"✅ Signed", strconv.Itoa(signed)},
			{"☑️ Already signed", strconv.Itoa(already)},
			{"❌ Failed", strconv.Itoa(failed)},
			{"**Total**", "**" + strconv.Itoa(total) + "**"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Check-in Results"),
		piechart.WithShowData(true),
	)

	if report.Signed > 0 {
		chart.LabelAndIntValue("Signed", uint64(report.Signed))
	}
	if report.AlreadySigned > 0 {
		chart.LabelAndIntValue("Already signed", uint64(report.AlreadySigned))
	}
	if report.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Failed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch runState(report) {
	case "failed":
		md.Cautionf("The run ended before any check-in: %s", report.Message)
	case "interrupted":
		md.Importantf("The run was interrupted after %d of %d forums.", report.Processed(), report.Total)
	case "completed with failures":
		md.Warningf("%d forum(s) could not be signed.", report.Failed)
	default:
		md.Tip("Every followed forum is signed for today.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, details []model.Outcome) {
	if len(details) == 0 {
		return
	}

	md.H2("Details")
	md.PlainText("")

	rows := make([][]string, len(details))
	for i, d := range details {
		code := "-"
		if d.Code >= 0 {
			code = strconv.Itoa(d.Code)
		}
		rows[i] = []string{escapeCell(d.Forum), escapeCell(d.Label), code}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Forum", "Status", "Code"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [tiebasign](https://github.com/nao1215/tiebasign)*")
}

// escapeCell keeps free text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
