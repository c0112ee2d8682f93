package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	backupOutput  string
	backupHistory bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up every stored card to one bundle archive",
	Long: `Export every card in the local store to a single backup bundle.
Restore with "dearly import <file> --all" or a selection.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (default: dearly-backup-<date>.dearly)")
	backupCmd.Flags().BoolVar(&backupHistory, "history", false, "include edit history")
	rootCmd.AddCommand(backupCmd)
}

// runBackup exports all stored cards as a bundle.
func runBackup(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	cards, err := e.records.List()
	if err != nil {
		return reportError(err)
	}
	if len(cards) == 0 {
		fmt.Println("no cards to back up")
		return nil
	}

	result, err := e.service.ExportBundle(cards, backupHistory)
	if err != nil {
		return reportError(err)
	}

	path := backupOutput
	if path == "" {
		path = outputPath(e.cfg, result.Filename)
	}
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		return reportError(fmt.Errorf("write archive: %w", err))
	}

	fmt.Printf("backed up %d cards to %s (%d bytes)\n", len(cards), path, len(result.Data))
	return nil
}
