package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/tiebasign/internal/model"
	"golang.org/x/sync/errgroup"
)

// Permissions of persisted files and the directories created for them.
const (
	filePerm = 0o600
	dirPerm  = 0o750
)

// Files names the output files of a run. Relative names are resolved
// against the output directory; an empty name skips that file.
type Files struct {
	Detail   string
	Summary  string
	Markdown string

	// AppendMarkdown appends to Markdown instead of replacing it.
	AppendMarkdown bool
}

// Persist writes the configured files concurrently and returns the paths
// written, in Detail, Summary, Markdown order. now stamps the summary.
func Persist(ctx context.Context, dir string, files Files, report *model.Report, now time.Time) ([]string, error) {
	type job struct {
		name       string
		render     func(*bytes.Buffer) error
		appendMode bool
	}

	jobs := []job{
		{files.Detail, func(b *bytes.Buffer) error {
			_, err := NewJSONWriter(b, WithPrettyPrint()).WriteReport(report)
			return err
		}, false},
		{files.Summary, func(b *bytes.Buffer) error {
			_, err := NewJSONWriter(b, WithPrettyPrint()).WriteSummary(report.Summary(now))
			return err
		}, false},
		{files.Markdown, func(b *bytes.Buffer) error {
			_, err := NewMarkdownWriter(b).WriteReport(report)
			return err
		}, files.AppendMarkdown},
	}

	written := make([]string, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		if j.name == "" {
			continue
		}
		path := resolve(dir, j.name)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := j.render(&buf); err != nil {
				return fmt.Errorf("failed to render %s: %w", path, err)
			}
			write := writeFile
			if j.appendMode {
				write = appendFile
			}
			if err := write(path, buf.Bytes()); err != nil {
				return err
			}
			written[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(written))
	for _, p := range written {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func appendFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
