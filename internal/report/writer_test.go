package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/tiebasign/internal/model"
)

var testTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// createTestReport creates a finished report over three forums.
func createTestReport() *model.Report {
	r := model.NewReport(3)
	r.Add(model.NewOutcome("golang", map[string]any{"no": float64(0), "error": ""}))
	r.Add(model.NewOutcome("编程", map[string]any{"no": float64(1101), "error": "already signed"}))
	r.Add(model.NewOutcome("rust", map[string]any{"no": float64(500), "error": "a|b <x>"}))
	r.StartedAt = testTime
	r.FinishedAt = testTime.Add(5 * time.Second)
	return r
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("detailed report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteReport(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, `"bar_name": "编程"`) {
			t.Errorf("expected unescaped non-ASCII name, got:\n%s", out)
		}
		if !strings.Contains(out, `"a|b <x>"`) {
			t.Errorf("expected HTML characters kept, got:\n%s", out)
		}
		if !strings.Contains(out, "\n  \"success\": true") {
			t.Errorf("expected two-space indentation, got:\n%s", out)
		}

		var got struct {
			Success       bool `json:"success"`
			Total         int  `json:"total"`
			Signed        int  `json:"signed"`
			AlreadySigned int  `json:"already_signed"`
			Failed        int  `json:"failed"`
			Details       []struct {
				Name   string         `json:"bar_name"`
				Status string         `json:"status"`
				Result map[string]any `json:"result"`
			} `json:"details"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Total != 3 || got.Signed != 1 || got.AlreadySigned != 1 || got.Failed != 1 {
			t.Errorf("unexpected counts %+v", got)
		}
		labels := []string{got.Details[0].Status, got.Details[1].Status, got.Details[2].Status}
		want := []string{"signed", "already signed", "failed: a|b <x>"}
		if diff := cmp.Diff(want, labels); diff != "" {
			t.Errorf("labels mismatch (-want +got):\n%s", diff)
		}
		if got.Details[2].Result["no"] != float64(500) {
			t.Errorf("expected raw response kept, got %v", got.Details[2].Result)
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		summary := createTestReport().Summary(testTime)
		if _, err := NewJSONWriter(&buf).WriteSummary(summary); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected compact single-line output, got %q", buf.String())
		}

		var got model.Summary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if diff := cmp.Diff(summary, got); diff != "" {
			t.Errorf("summary mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed report has empty details array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteReport(model.NewFailedReport("login failed: x")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"details":[]`) {
			t.Errorf("expected empty array, got %s", buf.String())
		}
		if !strings.Contains(buf.String(), `"message":"login failed: x"`) {
			t.Errorf("expected message, got %s", buf.String())
		}
	})
}

// TestSimpleWriter tests plain-text output.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("full report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteReport(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"TIEBA SIGN REPORT",
			"Duration:       5s",
			"TOTAL:          3",
			"SIGNED:         1",
			"ALREADY SIGNED: 1",
			"FAILED:         1",
			"[+] golang: signed",
			"[=] 编程: already signed",
			"[!] rust: failed: a|b <x>",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("without details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithDetails(false)).WriteReport(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "DETAILS") {
			t.Error("expected no details section")
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteReport(model.NewFailedReport(model.MessageNoForums)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "FAILED - no followed forums found") {
			t.Errorf("expected failure status, got:\n%s", buf.String())
		}
	})

	t.Run("interrupted run", func(t *testing.T) {
		t.Parallel()

		r := model.NewReport(4)
		r.Add(model.NewOutcome("a", map[string]any{"no": float64(0)}))
		r.Message = model.MessageRunInterrupted

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteReport(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "INTERRUPTED (1 of 4 forums)") {
			t.Errorf("expected interrupted status, got:\n%s", buf.String())
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(createTestReport().Summary(testTime)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TOTAL:          3") {
			t.Errorf("expected totals, got:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("full report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteReport(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Tieba Sign Report",
			"## Summary",
			"mermaid",
			"pie",
			"[!WARNING]",
			"## Details",
			"编程",
			"rust",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("failed run has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteReport(model.NewFailedReport("login failed: x")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "mermaid") {
			t.Error("expected no chart")
		}
		if !strings.Contains(out, "[!CAUTION]") {
			t.Errorf("expected caution alert, got:\n%s", out)
		}
		if strings.Contains(out, "## Details") {
			t.Error("expected no details table")
		}
	})

	t.Run("all signed", func(t *testing.T) {
		t.Parallel()

		r := model.NewReport(1)
		r.Add(model.NewOutcome("a", map[string]any{"no": float64(0)}))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteReport(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Errorf("expected tip alert, got:\n%s", buf.String())
		}
	})

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(createTestReport().Summary(testTime)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "2026-03-01T08:00:00Z") {
			t.Errorf("expected timestamp, got:\n%s", buf.String())
		}
	})
}

// TestMultiWriter tests fan-out.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

	n, err := w.WriteReport(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

// TestPersist tests file output.
func TestPersist(t *testing.T) {
	t.Parallel()

	t.Run("writes all files", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		files := Files{Detail: "sign_results.json", Summary: "summary.json", Markdown: "summary.md"}

		paths, err := Persist(context.Background(), dir, files, createTestReport(), testTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			filepath.Join(dir, "sign_results.json"),
			filepath.Join(dir, "summary.json"),
			filepath.Join(dir, "summary.md"),
		}
		if diff := cmp.Diff(want, paths); diff != "" {
			t.Errorf("paths mismatch (-want +got):\n%s", diff)
		}

		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				t.Fatalf("stat %s: %v", p, err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("%s: expected 0600, got %o", p, perm)
			}
		}

		data, err := os.ReadFile(paths[1])
		if err != nil {
			t.Fatalf("read summary: %v", err)
		}
		var got model.Summary
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid summary: %v", err)
		}
		if got.Total != 3 || !got.Success || !got.Time().Equal(testTime) {
			t.Errorf("unexpected summary %+v", got)
		}
	})

	t.Run("empty names are skipped", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		paths, err := Persist(context.Background(), dir, Files{Summary: "s.json"}, createTestReport(), testTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 1 {
			t.Errorf("expected one file, got %v", paths)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read dir: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected one entry, got %d", len(entries))
		}
	})

	t.Run("absolute names ignore the directory", func(t *testing.T) {
		t.Parallel()

		abs := filepath.Join(t.TempDir(), "step.md")
		paths, err := Persist(context.Background(), "/nonexistent-dir", Files{Markdown: abs}, createTestReport(), testTime)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 1 || paths[0] != abs {
			t.Errorf("expected %s, got %v", abs, paths)
		}
	})

	t.Run("append keeps earlier markdown", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "step.md")
		if err := os.WriteFile(path, []byte("## earlier step\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		files := Files{Markdown: path, AppendMarkdown: true}
		if _, err := Persist(context.Background(), "", files, createTestReport(), testTime); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got := string(data)
		if !strings.HasPrefix(got, "## earlier step\n") {
			t.Errorf("expected earlier content to survive, got:\n%s", got)
		}
		if !strings.Contains(got, "Tieba Sign Report") {
			t.Errorf("expected appended report, got:\n%s", got)
		}
	})

	t.Run("append creates a missing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "new", "step.md")
		files := Files{Markdown: path, AppendMarkdown: true}
		if _, err := Persist(context.Background(), "", files, createTestReport(), testTime); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("expected 0600, got %o", perm)
		}
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		_, err := Persist(ctx, dir, Files{Detail: "d.json"}, createTestReport(), testTime)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "d.json")); !os.IsNotExist(err) {
			t.Error("expected no file")
		}
	})
}
