package cmd

import (
	"fmt"
	"strings"

	"microbench/workload"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in workloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, group := range workload.Groups() {
				var labels []string
				for _, name := range workload.Names() {
					if g, label, _ := strings.Cut(name, "/"); g == group {
						labels = append(labels, label)
					}
				}
				fmt.Fprintf(out, "%-8s %s\n", group, strings.Join(labels, ", "))
			}
			return nil
		},
	}
}
