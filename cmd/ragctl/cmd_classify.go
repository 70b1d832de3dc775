package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/use-agent/ragsvc/models"
	"github.com/use-agent/ragsvc/pipeline"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show which URLs would be scraped",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printClassified(cmd.OutOrStdout(), args)
		return nil
	},
}

func printClassified(w io.Writer, urls []string) {
	results := make([]models.OrganicResult, len(urls))
	for i, u := range urls {
		results[i] = models.OrganicResult{Link: u, Position: i + 1}
	}
	for _, t := range pipeline.Classify(results) {
		verdict := "scrape"
		if !t.Scrapeable {
			verdict = "skip"
		}
		fmt.Fprintf(w, "%-6s %s\n", verdict, t.URL)
	}
}
