package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/ragsvc/cleaner"
	"github.com/use-agent/ragsvc/scraper"
	"github.com/use-agent/ragsvc/urlfilter"
	"golang.org/x/sync/errgroup"
)

var (
	scrapeConcurrency int
	scrapeTimeout     time.Duration
	scrapeMarkdown    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Scrape pages with a local headless browser",
	Long: `Launch a local browser and scrape every URL concurrently through the
same tab lifecycle the service uses. Non-HTML URLs (documents, archives,
media) are skipped up front. Failed URLs are reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := scraper.NewLoader(cfg.Scraper, scraper.DefaultDetectors()...)
		sc, err := scraper.New(scraper.RodLauncher(cfg.Browser), loader, cfg.Scraper)
		if err != nil {
			return err
		}
		defer sc.Close()
		return scrapeAll(cmd.Context(), cmd.OutOrStdout(), sc, args)
	},
}

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeConcurrency, "concurrency", "c", 5, "Pages scraped at once")
	scrapeCmd.Flags().DurationVarP(&scrapeTimeout, "timeout", "t", 30*time.Second, "Deadline per page")
	scrapeCmd.Flags().BoolVar(&scrapeMarkdown, "markdown", false, "Print Markdown instead of plain text")
}

type pageScraper interface {
	ScrapePage(ctx context.Context, url string) (*scraper.PageResult, error)
}

// scrapeAll scrapes the HTML-looking urls with bounded concurrency and prints
// the results in argument order, followed by the urls it skipped.
func scrapeAll(ctx context.Context, w io.Writer, sc pageScraper, args []string) error {
	urls, skipped := urlfilter.Partition(args)
	out := make([]string, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(scrapeConcurrency, 1))
	for i, u := range urls {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
			defer cancel()

			start := time.Now()
			page, err := sc.ScrapePage(pctx, u)
			if err != nil {
				slog.Warn("scrape failed", "url", u, "error", err)
				out[i] = fmt.Sprintf("=== %s\nerror: %v\n", u, err)
				return nil
			}
			content := page.Text
			if scrapeMarkdown {
				if md, err := cleaner.ToMarkdown(page.HTML, page.FinalURL); err == nil {
					content = md
				}
			}
			out[i] = fmt.Sprintf("=== %s\ntitle: %s\nfinal: %s\nchallenge: %s\ntokens: %d\nelapsed: %s\n\n%s\n",
				u, page.Title, page.FinalURL, page.Challenge, cleaner.EstimateTokens(content),
				time.Since(start).Round(time.Millisecond), content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range out {
		fmt.Fprintln(w, s)
	}
	for _, u := range skipped {
		fmt.Fprintf(w, "skipped (non-HTML): %s\n", u)
	}
	return nil
}
