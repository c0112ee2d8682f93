package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dearlyhq/dearly/pkg/dearly/config"
	"github.com/dearlyhq/dearly/pkg/dearly/container"
	"github.com/dearlyhq/dearly/pkg/dearly/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "dearly",
		Short: "Export, import, and validate .dearly card archives",
		Long: `Dearly manages portable card archives: single-card exports bundling
metadata, images, and edit history, and multi-card backup bundles.

Examples:
  dearly export 4f7c2b1a             # Export one card to a .dearly archive
  dearly export 4f7c2b1a --history   # Include edit history
  dearly import grandma-rose.dearly  # Import a shared card
  dearly import backup.dearly --all  # Restore everything from a backup
  dearly validate backup.dearly      # Check an archive without importing
  dearly backup -o backup.dearly     # Back up every stored card
  dearly watch ~/Drop                # Validate archives as they arrive`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dearly/config.yaml)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "output JSON format")
	rootCmd.PersistentFlags().BoolP("plain", "p", false, "plain text output, no styling")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("plain", rootCmd.PersistentFlags().Lookup("plain"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initLogging configures the logging system from config and flags.
func initLogging() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("DEARLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}

	level := cfg.Logging.Level
	if viper.GetBool("verbose") {
		level = "debug"
	}
	if err := logging.Init(logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// formatName returns the output formatter selected by flags.
func formatName() string {
	if viper.GetBool("json") {
		return "json"
	}
	if viper.GetBool("plain") {
		return "plain"
	}
	return "pretty"
}

// reportError prints a container error with its recovery suggestion.
func reportError(err error) error {
	var typed *container.Error
	if errors.As(err, &typed) {
		fmt.Fprintf(os.Stderr, "error: %s\n", typed.Error())
		if typed.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", typed.Suggestion)
		}
		return err
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return err
}

// outputPath joins the configured output directory with a filename.
func outputPath(cfg *config.Config, filename string) string {
	if cfg.Export.OutputDir == "" {
		return filename
	}
	return filepath.Join(cfg.Export.OutputDir, filename)
}
