package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/database"
	"github.com/nao1215/anonsetup/internal/editor"
	"github.com/nao1215/anonsetup/internal/flow"
	"github.com/nao1215/anonsetup/internal/log"
	"github.com/nao1215/anonsetup/internal/model"
	"github.com/nao1215/anonsetup/internal/report"
	"github.com/nao1215/anonsetup/internal/snapshot"
	"github.com/nao1215/anonsetup/internal/system"
	"github.com/nao1215/anonsetup/internal/transaction"
)

// addFlowFlags registers the flags every flow command carries.
func addFlowFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: /etc/anonsetup.yaml, then XDG locations)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting structured logger. Verbose switches
// the level from warnings to debug.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// loadConfig builds the runtime configuration: defaults, then the
// optional YAML file, then the persistent verbose flag.
//
// If the user explicitly specified a config file path, a missing file is
// an error. Without an explicit path the search locations are simply
// skipped when empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
		cfg.ConfigFilePath = configPath
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// buildFlowConfig extends loadConfig with the report flags.
func buildFlowConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// newFlowDeps wires the real host collaborators for a flow run.
func newFlowDeps(logger *slog.Logger) flow.Deps {
	return flow.Deps{
		Editor:   editor.New(editor.WithLogger(logger)),
		Packages: system.NewPackageManager(system.WithPackageLogger(logger)),
		Services: system.NewServiceManager(system.WithServiceLogger(logger)),
		Logger:   logger,
	}
}

// executeFlow validates cfg, builds the flow's steps against the real
// host collaborators and runs them as one transaction.
func executeFlow(cfg *config.Config, flowName string, build func(*config.Config, flow.Deps) ([]transaction.Step, error)) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals. Cancelling the context fails the current
	// step, which the controller answers with a full rollback.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, aborting transaction...")
		cancel()
	}()

	steps, err := build(cfg, newFlowDeps(logger))
	if err != nil {
		return err
	}

	return runTransaction(ctx, cfg, flowName, steps, logger)
}

// runTransaction runs the steps under the transaction controller, then
// journals and reports the outcome.
func runTransaction(ctx context.Context, cfg *config.Config, flowName string, steps []transaction.Step, logger *slog.Logger) error {
	store := snapshot.New(cfg.Snapshot.Dir, cfg.WatchedFiles, snapshot.WithLogger(logger))
	controller := transaction.New(store, cfg.LockFile,
		transaction.WithKeep(cfg.Snapshot.Keep),
		transaction.WithLogger(logger))

	fmt.Printf("Running %s flow (%d steps)...\n\n", flowName, len(steps))

	record, runErr := controller.Run(ctx, flowName, steps)
	if record == nil {
		// The single-instance lock could not be acquired; nothing ran and
		// there is nothing to journal or report.
		return runErr
	}

	// The journal write runs detached from the caller's context: a run
	// aborted by Ctrl-C is exactly the kind the history must still show.
	saveTransactionRecord(context.WithoutCancel(ctx), cfg, record, logger)

	if err := outputReport(cfg, record); err != nil {
		logger.Error("report output failed",
			slog.String("flow", flowName),
			slog.String("error", err.Error()))
	}

	return runErr
}

// saveTransactionRecord appends the record to the SQLite journal. The
// journal is advisory: failing to write it is logged, never propagated,
// because the transaction outcome on the host is already settled.
func saveTransactionRecord(ctx context.Context, cfg *config.Config, record *model.TransactionRecord, logger *slog.Logger) {
	journal, err := database.Open(cfg.JournalDir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open transaction journal", slog.String("error", err.Error()))
		return
	}
	defer journal.Close()

	if _, err := journal.SaveTransaction(ctx, record); err != nil {
		logger.Error("failed to journal transaction", slog.String("error", err.Error()))
		return
	}

	logger.Info("transaction journaled",
		slog.Int64("id", record.ID),
		slog.String("flow", record.Flow))
}

// outputReport writes the transaction report in the requested format.
func outputReport(cfg *config.Config, record *model.TransactionRecord) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports name host config files and carry error detail, so the
		// file is owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	switch {
	case cfg.JSONReport:
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(record)
		return err
	case cfg.MarkdownReport:
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(record)
		return err
	default:
		writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
		_, err := writer.Write(record)
		return err
	}
}
