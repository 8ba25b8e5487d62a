package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/config"
	"github.com/Bitlatte/oven/internal/logger"
)

var (
	cfgFile   string
	siteRoot  string
	logLevel  string
	devLog    bool
	appConfig *config.Config
	log       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oven",
	Short: "Oven bakes a content directory into a static website",
	Long: `Oven turns pages, dated blog posts and the rest of a site tree into a
static website. Bakes are incremental: only what changed since the last
bake, and what depends on it, is rendered again.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&siteRoot, "root", "r", "", "site root directory (default is the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human readable console logs")
}

func initializeConfig(_ *cobra.Command) error {
	cfg, err := config.Load(cfgFile, siteRoot)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	l, err := logger.New(cfg.LogLevel, devLog)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	appConfig = cfg
	log = l
	log.Debug("configuration loaded", zap.String("root", cfg.Root), zap.String("output", cfg.OutputDir))
	return nil
}
