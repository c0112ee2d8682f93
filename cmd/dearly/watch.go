package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dearlyhq/dearly/pkg/dearly/container"
	"github.com/dearlyhq/dearly/pkg/dearly/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Validate archives as they arrive in a directory",
	Long: `Watch a drop directory and validate each .dearly file as it lands.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runWatch validates archives arriving in the watched directory.
func runWatch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return reportError(err)
	}
	defer e.close()

	w, err := watcher.New(container.Extension)
	if err != nil {
		return reportError(err)
	}
	defer w.Close()

	if err := w.Watch(args[0]); err != nil {
		return reportError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("watching %s for %s files (ctrl-c to stop)\n", args[0], container.Extension)
	w.Run(ctx, func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return
		}
		result, err := e.service.Validate(data)
		if err != nil {
			_ = reportError(fmt.Errorf("%s: %w", path, err))
			return
		}
		fmt.Printf("%s: valid (v%d, %d entries)\n", path, result.Manifest.FormatVersion, result.Entries)
	})
	return nil
}
