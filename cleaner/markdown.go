package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// mdConverter is goroutine-safe and shared by all callers.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// ToMarkdown converts a page to Markdown. Readability picks the main content
// first; relative links are resolved against pageURL.
func ToMarkdown(rawHTML, pageURL string) (string, error) {
	return ReadArticle(rawHTML, pageURL).Markdown(pageURL)
}

// Markdown converts the article content to Markdown.
func (a Article) Markdown(pageURL string) (string, error) {
	return mdConverter.ConvertString(a.ContentHTML, converter.WithDomain(pageURL))
}
