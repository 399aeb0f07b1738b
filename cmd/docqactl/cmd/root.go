// Package cmd contains the docqactl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/app"
	"github.com/kailas-cloud/docqa/internal/config"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/version"
)

var (
	env      string
	cfgFile  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqactl",
	Short: "Operate the docqa index and relevance model",
	Long: `docqactl builds the retrieval indexes, trains the relevance model and
compares retrieval modes against a question set.

Example usage:
  docqactl index --passages data/passages.jsonl
  docqactl train --queries data/training_queries.yaml
  docqactl compare --questions data/questions.yaml --csv reranker_comparison.csv
  docqactl ask --mode learned "Which machinery is high-risk?"`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "environment name, selects config/<env>.yaml")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "explicit config file (overrides --env lookup)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logpkg.NewLogger(loggerEnv(env), level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

// loggerEnv maps unknown environments to the console logger.
func loggerEnv(e string) string {
	switch e {
	case "prod", "local", "dev", "docker":
		return e
	default:
		return "local"
	}
}

// withApp builds the application graph for one command and releases it afterwards.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
