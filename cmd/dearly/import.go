package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/container"
	"github.com/dearlyhq/dearly/pkg/dearly/output"
)

var (
	importAll     bool
	importSelect  []string
	importKeepIDs bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.dearly>",
	Short: "Import a card archive or backup bundle",
	Long: `Import a .dearly archive. Single-card archives import directly with a
freshly minted identifier. Backup bundles show a preview and require an
explicit selection: pass --all to import everything, or --select with a
comma-separated list of card IDs from the preview.

--keep-ids preserves the original identifiers when restoring a backup.
Restoring into a store that already holds those identifiers overwrites
them; de-conflicting is the caller's responsibility.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importAll, "all", false, "select every card in a backup bundle")
	importCmd.Flags().StringSliceVar(&importSelect, "select", nil, "card IDs to import from a backup bundle")
	importCmd.Flags().BoolVar(&importKeepIDs, "keep-ids", false, "preserve original card identifiers (bundle restore only)")
	rootCmd.AddCommand(importCmd)
}

// runImport imports a single-card archive or a backup bundle.
func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return reportError(fmt.Errorf("read archive: %w", err))
	}

	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	card, err := e.service.Import(data)
	if err == nil {
		fmt.Printf("imported card %s (%s)\n", card.ID, card.Sender)
		return nil
	}
	if !errors.Is(err, container.ErrBackupBundleMismatch) {
		return reportError(err)
	}

	// The archive is a backup bundle.
	return runBundleImport(e, data)
}

// runBundleImport previews a bundle and imports the selected cards.
func runBundleImport(e *env, data []byte) error {
	previews, err := e.service.PreviewBundle(data)
	if err != nil {
		return reportError(err)
	}

	selection := bundleSelection(previews, importSelect, importAll)

	if len(selection) == 0 {
		if err := printPreviews(previews); err != nil {
			return reportError(err)
		}
		fmt.Println("\nre-run with --all or --select <id,...> to import")
		return nil
	}

	result, err := e.service.ImportBundle(data, selection, importKeepIDs)
	if err != nil {
		return reportError(err)
	}

	fmt.Printf("imported %d of %d selected cards\n", len(result.Imported), len(selection))
	for _, failure := range result.Failed {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", failure.ID, failure.Err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d cards failed to import", len(result.Failed))
	}
	return nil
}

// bundleSelection resolves the selection flags against the preview rows.
// --all wins, selecting every card into a fresh slice so the explicit
// --select values are never clobbered.
func bundleSelection(previews []container.BundlePreview, explicit []string, all bool) []string {
	if !all {
		return explicit
	}
	selection := make([]string, 0, len(previews))
	for _, p := range previews {
		selection = append(selection, p.ID)
	}
	return selection
}

// printPreviews renders the bundle preview table.
func printPreviews(previews []container.BundlePreview) error {
	report := &output.Report{}
	for _, p := range previews {
		report.Previews = append(report.Previews, output.PreviewRow{
			ID:           p.ID,
			Sender:       p.Sender,
			Occasion:     p.Occasion,
			Date:         p.Date,
			HasThumbnail: len(p.ThumbnailBytes) > 0,
		})
	}

	formatter, err := output.Get(formatName())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return err
	}
	fmt.Print(strings.TrimRight(buf.String(), "\n") + "\n")
	return nil
}
