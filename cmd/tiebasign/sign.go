package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nao1215/tiebasign/internal/config"
	"github.com/nao1215/tiebasign/internal/database"
	"github.com/nao1215/tiebasign/internal/metrics"
	"github.com/nao1215/tiebasign/internal/model"
	"github.com/nao1215/tiebasign/internal/notify"
	"github.com/nao1215/tiebasign/internal/report"
	"github.com/nao1215/tiebasign/internal/signer"
	"github.com/nao1215/tiebasign/internal/tieba"
	"github.com/spf13/cobra"
)

// envStepSummary is set by GitHub Actions to the job summary file.
const envStepSummary = "GITHUB_STEP_SUMMARY"

// defaultEnvFile is read when present. A missing default is not an error.
const defaultEnvFile = ".env"

var (
	// ErrRunInterrupted is returned when a signal stopped the run.
	ErrRunInterrupted = errors.New("run interrupted")

	// ErrRunFailed is returned with --fail-on-error when the run or any
	// forum failed.
	ErrRunFailed = errors.New("sign run failed")
)

// NewSignCmd creates the sign command.
func NewSignCmd() *cobra.Command {
	return newSignCmd(osEnvironment())
}

func newSignCmd(env environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Check in to every followed forum",
		Long: `Sign logs in, enumerates the followed forums and checks in to each of
them, one at a time with a short random pause in between.

Credentials are read from TIEBA_USERNAME and TIEBA_PASSWORD. Variables
already present in the environment win over the .env file.

Two JSON files are always written to the output directory:
  sign_results.json  per-forum results
  summary.json       counts and a timestamp

Configuration file (.tiebasign):
  Created with 'tiebasign init'. Searched for in the current directory,
  $XDG_CONFIG_HOME/tiebasign and the home directory. Flags override it.

Examples:
  # Sign with credentials from the environment
  TIEBA_USERNAME=me TIEBA_PASSWORD=secret tiebasign sign

  # Write reports to ./out and a markdown summary
  tiebasign sign -o out --markdown summary.md

  # Exit non-zero when a forum fails (useful in CI)
  tiebasign sign --fail-on-error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSignCmd(cmd, env)
		},
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .tiebasign in current, XDG config or home directory)")
	cmd.Flags().String("env-file", defaultEnvFile,
		"Read credentials from this dotenv file; empty disables it")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", "",
		"Directory for the report files (default: current directory)")
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a markdown summary to this file")
	cmd.Flags().String("metrics", "",
		"Also write a Prometheus textfile to this path")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().String("history-dir", "",
		"Directory of the history database (default: XDG data directory)")
	cmd.Flags().Bool("fail-on-error", false,
		"Exit with an error when the run or any forum failed")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay,
		"Minimum pause after each check-in")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay,
		"Maximum pause after each check-in (0 disables the pause)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxForumPages,
		"Maximum number of followed-forum pages to read")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http://, https:// or socks5://)")

	return cmd
}

// runSignCmd executes the sign command.
func runSignCmd(cmd *cobra.Command, env environment) error {
	getenv, err := loadEnvFile(cmd, env)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, getenv)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			logger.Error("credentials are not set",
				"hint", "export "+config.EnvUsername+" and "+config.EnvPassword+" or put them in "+defaultEnvFile)
		}
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := tieba.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return runSign(ctx, cmd.OutOrStdout(), cfg, client, getenv, logger)
}

// runSign performs one run with service and handles every output.
func runSign(ctx context.Context, out io.Writer, cfg *config.Config, service signer.Service,
	getenv func(string) string, logger *slog.Logger) error {
	s := signer.New(service,
		signer.WithLogger(logger),
		signer.WithDelayer(delayerFor(cfg)),
		signer.WithOnOutcome(func(o model.Outcome) {
			fmt.Fprintf(out, "%s: %s\n", o.Forum, o.Label)
		}),
	)

	rep := s.Run(ctx, cfg.Credentials)
	now := time.Now()

	if _, err := report.NewSimpleWriter(out, report.WithDetails(false)).WriteReport(rep); err != nil {
		logger.Warn("failed to print summary", "error", err)
	}

	// Outputs are written even after an interrupt.
	persistCtx := context.WithoutCancel(ctx)

	files := report.Files{
		Detail:   cfg.DetailFile,
		Summary:  cfg.SummaryFile,
		Markdown: cfg.MarkdownFile,
	}
	if files.Markdown == "" {
		files.Markdown = getenv(envStepSummary)
		files.AppendMarkdown = files.Markdown != ""
	}
	paths, err := report.Persist(persistCtx, cfg.OutputDir, files, rep, now)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	for _, p := range paths {
		logger.Info("report written", "path", p)
	}

	if cfg.MetricsFile != "" {
		path := cfg.OutputPath(cfg.MetricsFile)
		if err := metrics.WriteReport(path, rep, now); err != nil {
			logger.Warn("failed to write metrics", "path", path, "error", err)
		}
	}

	if cfg.SaveToDB {
		saveHistory(persistCtx, cfg, rep, logger)
	}

	notifier := notify.NewEmailNotifier(cfg.Notify, notify.WithLogger(logger))
	if notifier.ShouldNotify(rep) {
		if err := notifier.Notify(persistCtx, rep); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}

	if rep.Message == model.MessageRunInterrupted {
		return fmt.Errorf("%w after %d of %d forums", ErrRunInterrupted, rep.Processed(), rep.Total)
	}
	if cfg.FailOnError && rep.HasFailures() {
		if !rep.Success {
			return fmt.Errorf("%w: %s", ErrRunFailed, rep.Message)
		}
		return fmt.Errorf("%w: %d of %d forums failed", ErrRunFailed, rep.Failed, rep.Total)
	}
	return nil
}

// saveHistory records the run. Failures are logged, never returned.
func saveHistory(ctx context.Context, cfg *config.Config, rep *model.Report, logger *slog.Logger) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "error", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close history database", "error", err)
		}
	}()

	id, err := db.SaveRun(ctx, cfg.Credentials.Username, rep)
	if err != nil {
		logger.Warn("failed to save run history", "error", err)
		return
	}
	logger.Debug("run saved", "id", id, "database", db.Path())
}

// delayerFor returns the pause taken after each check-in.
func delayerFor(cfg *config.Config) signer.Delayer {
	if cfg.MaxDelay == 0 {
		return signer.NoDelay{}
	}
	return signer.RandomDelay{Min: cfg.MinDelay, Max: cfg.MaxDelay}
}

// loadEnvFile reads the dotenv file named by --env-file and returns a
// lookup that prefers the process environment. The process environment is
// not modified.
func loadEnvFile(cmd *cobra.Command, env environment) (func(string) string, error) {
	path, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return env.getenv, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return env.getenv, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	return func(key string) string {
		if v := env.getenv(key); v != "" {
			return v
		}
		return values[key]
	}, nil
}

// buildConfig creates a Config from defaults, the configuration file, the
// environment and the command flags, in that order.
func buildConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.LoadEnv(getenv)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	return cfg, nil
}

// applyConfigFile loads the configuration file, if any, into cfg.
// An explicitly named file must exist.
func applyConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(found)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	if err := file.Apply(cfg); err != nil {
		return err
	}
	cfg.ConfigFilePath = found
	return nil
}

// applyFlags copies every flag the user set into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("markdown") {
		if cfg.MarkdownFile, err = flags.GetString("markdown"); err != nil {
			return err
		}
	}
	if flags.Changed("metrics") {
		if cfg.MetricsFile, err = flags.GetString("metrics"); err != nil {
			return err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noHistory
	}
	if flags.Changed("history-dir") {
		if cfg.DBDir, err = flags.GetString("history-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("fail-on-error") {
		if cfg.FailOnError, err = flags.GetBool("fail-on-error"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("min-delay") {
		if cfg.MinDelay, err = flags.GetDuration("min-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("max-delay") {
		if cfg.MaxDelay, err = flags.GetDuration("max-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxForumPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	return nil
}
