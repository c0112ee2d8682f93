package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow prints the effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return reportError(err)
	}

	fmt.Printf("store.records_path:     %s\n", cfg.Store.RecordsPath)
	fmt.Printf("store.blobs_path:       %s\n", cfg.Store.BlobsPath)
	fmt.Printf("export.jpeg_quality:    %d\n", cfg.Export.JPEGQuality)
	fmt.Printf("export.include_history: %v\n", cfg.Export.IncludeHistory)
	fmt.Printf("export.output_dir:      %s\n", cfg.Export.OutputDir)
	fmt.Printf("logging.level:          %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:           %s\n", cfg.Logging.Path)
	return nil
}

// defaultConfigYAML is the template written by config init.
const defaultConfigYAML = `# dearly configuration
store:
  # records_path: ~/.local/share/dearly/records
  # blobs_path: ~/.local/share/dearly/blobs

export:
  jpeg_quality: 85
  include_history: false
  # output_dir: ~/Cards

logging:
  level: info
  # path: ~/.local/state/dearly/dearly.log
`

// runConfigInit writes a default config file if none exists.
func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return reportError(err)
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return reportError(err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("config already exists: %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return reportError(err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
