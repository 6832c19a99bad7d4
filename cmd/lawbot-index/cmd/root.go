// Package cmd provides the CLI commands for lawbot-index.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/config"
	logpkg "github.com/kailas-cloud/lawbot/internal/logger"
	"github.com/kailas-cloud/lawbot/internal/version"
)

// runtime is filled by the root PersistentPreRunE and shared by subcommands.
type runtime struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

// NewRootCmd creates the root command for the lawbot-index CLI.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}
	var configPath string

	cmd := &cobra.Command{
		Use:   "lawbot-index",
		Short: "Build and publish lawbot retrieval indexes",
		Long: `lawbot-index turns a JSONL corpus of court precedents into the
BM25 and vector indexes the lawbot API server loads at startup, and
uploads them to S3 for servers that fetch snapshots.`,
		Version:       version.String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(configPath)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("lawbot-index version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: config/<ENV>.yaml)")

	cmd.AddCommand(newBuildCmd(rt))
	cmd.AddCommand(newPublishCmd(rt))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (rt *runtime) init(configPath string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	rt.env = config.GetEnv()
	if configPath == "" {
		configPath = config.FindConfigPath(rt.env)
	}

	cfg, err := config.LoadIndexerFile(configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	logger, err := logpkg.NewLogger(rt.env, cfg.Logging.Level, "lawbot-index")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	rt.logger = logger
	logpkg.SetDefault(logger)
	return nil
}
