package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/ragsvc/models"
	"github.com/use-agent/ragsvc/search"
)

var (
	searchNum  int
	searchSite string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a web search and print the organic results",
	Long: `Run one Serper search with the configured key (SERPER_API_KEY) and print
each organic result with its scrape verdict.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Search
		if searchNum > 0 {
			sc.NumResults = searchNum
		}
		if searchSite != "" {
			sc.Site = searchSite
		}
		resp, err := search.FromConfig(sc).Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		printResults(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchNum, "num", "n", 0, "Number of results (default from RAG_SEARCH_NUM)")
	searchCmd.Flags().StringVar(&searchSite, "site", "", "Restrict results to one domain")
}

func printResults(w io.Writer, resp *models.SearchResponse) {
	if len(resp.Organic) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for i, res := range resp.Organic {
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, res.Title, res.Link)
		if res.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", res.Snippet)
		}
	}
	fmt.Fprintln(w)
	printClassified(w, search.Links(resp))
}
