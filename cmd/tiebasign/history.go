package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/tiebasign/internal/config"
	"github.com/nao1215/tiebasign/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	return newHistoryCmd(osEnvironment())
}

func newHistoryCmd(env environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sign runs",
		Long: `History lists the runs recorded by 'tiebasign sign'.

Runs are stored per account. The account is taken from TIEBA_USERNAME,
read from the environment or the .env file; use --all to list every
account.

Examples:
  # Latest runs of the current account
  tiebasign history

  # Forum outcomes of one run
  tiebasign history --run 5f0c...

  # How one forum did over time
  tiebasign history --forum golang

  # Machine-readable output
  tiebasign history --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryCmd(cmd, env)
		},
	}

	cmd.Flags().String("history-dir", "",
		"Directory of the history database (default: XDG data directory)")
	cmd.Flags().String("env-file", defaultEnvFile,
		"Read TIEBA_USERNAME from this dotenv file; empty disables it")
	cmd.Flags().String("run", "", "Show the forum outcomes of this run id")
	cmd.Flags().String("forum", "", "Show the outcomes of this forum across runs")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of entries (0 for all)")
	cmd.Flags().Bool("all", false, "List the runs of every account")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, env environment) error {
	flags := cmd.Flags()
	dir, err := flags.GetString("history-dir")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}
	runID, err := flags.GetString("run")
	if err != nil {
		return err
	}
	forum, err := flags.GetString("forum")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	all, err := flags.GetBool("all")
	if err != nil {
		return err
	}
	getenv, err := loadEnvFile(cmd, env)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dir, database.Options{})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	username := ""
	if !all {
		username = getenv(config.EnvUsername)
	}

	ctx := cmd.Context()
	switch {
	case runID != "":
		run, outcomes, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, struct {
				*database.Run
				Details []database.OutcomeRecord `json:"details"`
			}{run, outcomes})
		}
		renderRun(out, run, outcomes)

	case forum != "":
		if username == "" {
			return fmt.Errorf("--forum needs %s to select the account", config.EnvUsername)
		}
		entries, err := db.ForumHistory(ctx, username, forum, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "No history for %s.\n", forum)
			return nil
		}
		renderForumHistory(out, entries)

	default:
		runs, err := db.ListRuns(ctx, username, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			if runs == nil {
				runs = []database.Run{}
			}
			return writeJSON(out, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		renderRuns(out, runs, all)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderRuns(out io.Writer, runs []database.Run, withAccount bool) {
	t := newTable(out)
	header := table.Row{"Run", "Started", "Duration", "Total", "Signed", "Already", "Failed", "Result"}
	if withAccount {
		header = append(table.Row{"Account"}, header...)
	}
	t.AppendHeader(header)

	for _, r := range runs {
		row := table.Row{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Second),
			r.Total, r.Signed, r.AlreadySigned, r.Failed,
			runResult(r),
		}
		if withAccount {
			row = append(table.Row{r.Account}, row...)
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderRun(out io.Writer, run *database.Run, outcomes []database.OutcomeRecord) {
	fmt.Fprintf(out, "Run %s  %s  %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime), runResult(*run))

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Forum", "Status", "Code"})
	for i, o := range outcomes {
		t.AppendRow(table.Row{i + 1, o.Forum, o.Label, codeCell(o.Code)})
	}
	t.AppendFooter(table.Row{"", "Total", fmt.Sprintf("%d signed, %d already, %d failed",
		run.Signed, run.AlreadySigned, run.Failed), ""})
	t.Render()
}

func renderForumHistory(out io.Writer, entries []database.ForumEntry) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Run", "Started", "Status", "Code"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.RunID, e.StartedAt.Local().Format(time.DateTime), e.Label, codeCell(e.Code)})
	}
	t.Render()
}

func runResult(r database.Run) string {
	switch {
	case !r.Success:
		return "failed: " + r.Message
	case r.Message != "":
		return r.Message
	case r.Failed > 0:
		return "with failures"
	default:
		return "ok"
	}
}

func codeCell(code int) string {
	if code < 0 {
		return "-"
	}
	return fmt.Sprint(code)
}
