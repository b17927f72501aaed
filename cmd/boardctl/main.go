// Command boardctl runs maintenance tasks against the board database
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"task-board-api/internal/config"
	"task-board-api/internal/database"
)

var Version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "boardctl",
		Short:         "boardctl - maintenance commands for the task board",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(migrateCmd(flags))
	rootCmd.AddCommand(scanDueDatesCmd(flags))
	rootCmd.AddCommand(cleanupCmd(flags))
	rootCmd.AddCommand(rulesCmd(flags))

	return rootCmd
}

// env is what every subcommand needs: config, logger and an open database
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func (f *globalFlags) open() (*env, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	level := zapcore.WarnLevel
	if f.verbose {
		level = zapcore.DebugLevel
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	_ = database.Close(e.db)
	_ = e.logger.Sync()
}
