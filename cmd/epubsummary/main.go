package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unalkalkan/EpubSummary/internal/config"
	"github.com/unalkalkan/EpubSummary/pkg/types"
)

const version = "0.3.0"

// app carries the state shared by every command once the root pre-run has
// loaded the configuration
type app struct {
	configPath string
	verbose    bool

	cfg    *types.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "epubsummary",
		Short: "Extract, order and revise the chapters of EPUB books",
		Long: `epubsummary reads EPUB archives, works out the reading order of their
chapter documents from the file names, and extracts the chapter text.

Chapters can be dumped to the configured storage (local folder or S3 bucket)
as json, plain text or markdown, or sent to an OpenAI-compatible model that
shortens each chapter and writes a summary.

A source argument is a local file when one exists at that path, otherwise a
key in the configured storage.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (default: built-in defaults)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newChaptersCmd(a),
		newExtractCmd(a),
		newDumpCmd(a),
		newReviseCmd(a),
		newLibraryCmd(a),
		newBooksCmd(a),
		newExportCmd(a),
		newPathsCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg.Logging, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	a.logger.Debug("Configuration loaded",
		zap.String("config", a.configPath),
		zap.String("storage", cfg.Storage.Adapter))
	return nil
}

func buildLogger(cfg types.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
