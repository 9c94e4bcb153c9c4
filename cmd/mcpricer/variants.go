package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/mcpricer/payoff"
)

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List supported option variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tDEFAULT STRIKE")
			for _, v := range payoff.AllVariants() {
				strike := "-"
				if v.IsEuropean() {
					strike = fmt.Sprintf("%g", v.DefaultStrike())
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v, v.Label(), strike)
			}
			return w.Flush()
		},
	}
}
