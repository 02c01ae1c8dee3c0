package main

import (
	"fmt"

	"notice_bot/internal/crawler"

	"github.com/spf13/cobra"
)

func newCrawlCmd(root *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl pass over all enabled sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), root.cfg, dryRun)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.crawler.Run(cmd.Context(), crawler.RunOptions{DryRun: a.dryRun})

			out := cmd.OutOrStdout()
			for _, s := range report.Sources {
				for _, n := range s.Pending {
					fmt.Fprintf(out, "[DRY-RUN] %s: %s (%s)\n", s.Key, n.Title, n.URL)
				}
			}
			fmt.Fprintln(out, report.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch, parse and filter without sending or committing")
	return cmd
}
