package cmd

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var role string
	c := &cobra.Command{
		Use:   "inspect [snapshot]",
		Short: "Summarise the PubSub entities in a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := nodespace.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if role != "" {
				return listRole(cmd, m, role)
			}
			return summarise(cmd, m)
		},
	}
	c.Flags().StringVar(&role, "role", "", "List the nodes of one role (e.g. WriterGroup)")
	return c
}

func summarise(cmd *cobra.Command, m *nodespace.Memory) error {
	counts := m.CountByType()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ROLE\tTYPE\tCOUNT\n")
	for _, r := range classify.Roles() {
		td, _ := classify.TypeDefinition(r)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", r, td, counts[td])
	}

	// Type definitions the classifier does not know about.
	var other []nodespace.NodeID
	for td := range counts {
		if classify.ClassifyTag(td) == classify.Unclassified {
			other = append(other, td)
		}
	}
	slices.SortFunc(other, func(a, b nodespace.NodeID) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, td := range other {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", classify.Unclassified, td, counts[td])
	}
	return tw.Flush()
}

func listRole(cmd *cobra.Command, m *nodespace.Memory, name string) error {
	for _, r := range classify.Roles() {
		if r.String() != name {
			continue
		}
		td, _ := classify.TypeDefinition(r)
		for _, id := range m.OfType(td) {
			n, err := m.GetNode(id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, n.BrowseName)
		}
		return nil
	}
	return fmt.Errorf("unknown role %q", name)
}
