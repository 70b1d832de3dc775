// Command ragctl runs the retrieval building blocks from the shell: local
// browser scrapes, URL classification and raw web searches.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/ragsvc/config"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Inspect the ragsvc retrieval pipeline from the command line",
	Long: `ragctl exercises the pieces behind the ragsvc HTTP API.

Available commands:
  scrape   - Load pages in a local headless browser and print their text
  classify - Show which URLs the pipeline would scrape or skip
  search   - Run a Serper web search and print the organic results`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(scrapeCmd, classifyCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
