package main

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cards",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// runList prints every stored card, newest first.
func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	cards, err := e.records.List()
	if err != nil {
		return reportError(err)
	}

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Date.After(cards[j].Date)
	})

	report := &output.Report{}
	for _, card := range cards {
		report.Cards = append(report.Cards, output.CardRow{
			ID:        card.ID,
			Sender:    card.Sender,
			Occasion:  card.Occasion,
			Date:      card.Date,
			Favorite:  card.IsFavorite,
			Snapshots: len(card.History),
		})
	}
	if len(report.Cards) == 0 {
		report.Message = "no cards stored"
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
