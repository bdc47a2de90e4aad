package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pubsubconf",
		Short: "Rebuild OPC UA PubSub configuration documents from captured node spaces",
		Long: `pubsubconf walks a captured OPC UA address space from the PublishSubscribe
object down and writes the PubSub configuration it describes.

Captures are JSON dumps or SQLite files (.db); see "pubsubconf snapshot".`,
		SilenceUsage: true,
	}
	root.AddCommand(newSynthCmd(), newSnapshotCmd(), newInspectCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
