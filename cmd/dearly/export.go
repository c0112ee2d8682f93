package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportHistory bool
)

var exportCmd = &cobra.Command{
	Use:   "export <card-id>",
	Short: "Export a card to a .dearly archive",
	Long: `Export one stored card to a portable .dearly archive bundling its
metadata and images. With --history the archive also carries every
retained edit-history snapshot and its historical images.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: derived from sender and date)")
	exportCmd.Flags().BoolVar(&exportHistory, "history", false, "include edit history")
	rootCmd.AddCommand(exportCmd)
}

// runExport exports a single card.
func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	card, err := e.records.Get(args[0])
	if err != nil {
		return reportError(fmt.Errorf("card %s: %w", args[0], err))
	}

	includeHistory := exportHistory || e.cfg.Export.IncludeHistory
	result, err := e.service.Export(card, includeHistory)
	if err != nil {
		return reportError(err)
	}

	path := exportOutput
	if path == "" {
		path = outputPath(e.cfg, result.Filename)
	}
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		return reportError(fmt.Errorf("write archive: %w", err))
	}

	fmt.Printf("exported %s (%d bytes)\n", path, len(result.Data))
	return nil
}
