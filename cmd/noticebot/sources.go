package main

import (
	"fmt"
	"text/tabwriter"

	"notice_bot/internal/parser"

	"github.com/spf13/cobra"
)

func newSourcesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources and the list page each one fetches",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tPARSER\tENABLED\tCHANNEL\tLIST URL")
			for _, src := range root.cfg.SourceList() {
				channel := src.Channel
				if channel == "" {
					channel = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", src.Key, src.Kind, src.Enabled, channel, parser.ListURL(src))
			}
			return w.Flush()
		},
	}
}
