package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/manifest"
	"github.com/dearlyhq/dearly/pkg/dearly/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.dearly>",
	Short: "Check an archive without importing it",
	Long: `Validate a .dearly archive: parse the container, verify entry
checksums, decode the manifest, and check that the required images are
present. Nothing is written to the local stores.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate validates an archive and prints a summary.
func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return reportError(fmt.Errorf("read archive: %w", err))
	}

	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	result, err := e.service.Validate(data)
	if err != nil {
		return reportError(err)
	}

	mode := "single"
	cards := 1
	hasHistory := len(result.Manifest.VersionHistory) > 0
	if result.Mode == manifest.ModeBundle {
		mode = "bundle"
		cards = len(result.Manifest.Cards)
		for _, bc := range result.Manifest.Cards {
			if len(bc.VersionHistory) > 0 {
				hasHistory = true
				break
			}
		}
	}

	report := &output.Report{
		Validation: &output.Validation{
			Filename:      filepath.Base(args[0]),
			FormatVersion: result.Manifest.FormatVersion,
			Mode:          mode,
			Entries:       result.Entries,
			Size:          int64(len(data)),
			Cards:         cards,
			HasHistory:    hasHistory,
		},
		Message: "archive is valid",
	}

	formatter, err := output.Get(formatName())
	if err != nil {
		return reportError(err)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return reportError(err)
	}
	fmt.Print(buf.String())
	return nil
}
