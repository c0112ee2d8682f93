package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/output"
)

var historyCmd = &cobra.Command{
	Use:   "history <card-id>",
	Short: "View a card's edit history",
	Long: `List the retained edit-history snapshots for a card. At most ten
snapshots are kept; the oldest are evicted as new edits arrive.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore <card-id> <version>",
	Short: "Restore a card to a previous version",
	Long: `Revert a card's metadata and images to the state captured by a
snapshot. The restoration itself is recorded as a new snapshot, so the
change can be undone the same way.`,
	Args: cobra.ExactArgs(2),
	RunE: runHistoryRestore,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <card-id> <version>",
	Short: "Delete one snapshot",
	Long: `Remove a single snapshot and its historical images. The card's
current data is unaffected.`,
	Args: cobra.ExactArgs(2),
	RunE: runHistoryDelete,
}

func init() {
	historyCmd.AddCommand(historyRestoreCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// runHistory lists a card's snapshots.
func runHistory(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	card, err := e.records.Get(args[0])
	if err != nil {
		return reportError(fmt.Errorf("card %s: %w", args[0], err))
	}

	report := &output.Report{}
	for _, snap := range card.History {
		row := output.HistoryRow{Version: snap.VersionNumber, EditedAt: snap.EditedAt}
		for _, mc := range snap.MetadataChanges {
			row.Fields = append(row.Fields, string(mc.Field))
		}
		for _, ic := range snap.ImageChanges {
			row.Slots = append(row.Slots, string(ic.Slot))
		}
		report.History = append(report.History, row)
	}
	if len(report.History) == 0 {
		report.Message = "no history"
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

// runHistoryRestore restores a card to a snapshot's captured state.
func runHistoryRestore(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version number %q", args[1])
	}

	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	card, err := e.records.Get(args[0])
	if err != nil {
		return reportError(fmt.Errorf("card %s: %w", args[0], err))
	}

	if err := e.service.History().Restore(card, version); err != nil {
		return reportError(err)
	}
	if err := e.records.Put(card); err != nil {
		return reportError(err)
	}

	fmt.Printf("restored card %s to version %d\n", card.ID, version)
	return nil
}

// runHistoryDelete deletes one snapshot.
func runHistoryDelete(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version number %q", args[1])
	}

	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	card, err := e.records.Get(args[0])
	if err != nil {
		return reportError(fmt.Errorf("card %s: %w", args[0], err))
	}

	if err := e.service.History().DeleteSnapshot(card, version); err != nil {
		return reportError(err)
	}
	if err := e.records.Put(card); err != nil {
		return reportError(err)
	}

	fmt.Printf("deleted version %d of card %s\n", version, card.ID)
	return nil
}
