package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesyinbaare/rmps-sub002/internal/config"
	"github.com/jamesyinbaare/rmps-sub002/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rmps",
	Short: "Sheet identifier extraction and batch consistency engine",
	Long: `rmps recovers structured sheet identifiers from scanned answer sheets.

It decodes the printed barcode (falling back to OCR over the identifier
strip), validates the 13-character code against the identifier grammar and
the school/subject reference data, detects duplicate sheets, and audits
submission batches for duplicate and missing sheet numbers. The same grammar
drives sheet ID generation for printed score sheets.

Examples:
  rmps extract scan.png --document-id <uuid> --exam-id <uuid>
  rmps batch run <batch-uuid>
  rmps generate --school-code ABC123 --subject-code MA01 --series A --test-type 1 --sheet-number 7
  rmps serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			ver, commit, date := version.Info()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rmps version %s\nCommit: %s\nDate: %s\n", ver, commit, date)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

// GetConfig returns the loaded configuration, falling back to defaults when
// loading has not happened (e.g. in tests).
func GetConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/rmps, /etc/rmps)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information")
}

// initConfig loads configuration and sets up logging.
func initConfig() {
	configLoader = config.NewLoader()

	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	globalConfig = cfg

	level := cfg.LogLevel
	if rootCmd.PersistentFlags().Changed("log-level") {
		level, _ = rootCmd.PersistentFlags().GetString("log-level")
	}
	setupLogging(level)
}

func setupLogging(level string) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
