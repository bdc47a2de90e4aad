package cmd

import (
	"fmt"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with captured node spaces",
	}
	c.AddCommand(&cobra.Command{
		Use:   "convert [in] [out]",
		Short: "Convert a capture between JSON and SQLite (.db)",
		Long: `Convert reads a capture and writes it in the format implied by the output
extension. An existing .db output is replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := nodespace.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if err := nodespace.SaveFile(args[1], m); err != nil {
				return fmt.Errorf("save %s: %w", args[1], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d nodes to %s\n", len(m.Nodes()), args[1])
			return nil
		},
	})
	return c
}
