// Package commands implements the timecard command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/config"
	"github.com/garyjia/timecard-reconciler/pkg/utils"
)

// app is the state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "timecard",
		Short:   "Reconcile employee time-card PDFs into monthly hour balances",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "configs/config.yaml", "configuration file (optional)")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, ".env files to load")
	flags.StringVar(&a.logLevel, "log-level", "", "override logger.level")

	rootCmd.AddCommand(newProcessCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newEmployeesCommand(a))

	return rootCmd
}

func (a *app) load() error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
