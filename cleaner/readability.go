package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// minReadableLength is the rune length below which readability output is
// assumed to have missed the main content.
const minReadableLength = 50

// Article is the readable part of a page plus its metadata.
type Article struct {
	Title       string
	Byline      string
	Excerpt     string
	SiteName    string
	Language    string
	ContentHTML string

	// Readable is false when readability failed and ContentHTML is the raw page.
	Readable bool
}

// ReadArticle runs the Mozilla Readability algorithm on rawHTML. It never
// fails: on any readability error the raw HTML is returned as content with
// empty metadata.
func ReadArticle(rawHTML, pageURL string) Article {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Debug("readability: invalid page URL", "url", pageURL, "error", err)
		return Article{ContentHTML: rawHTML}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", pageURL, "error", err)
		return Article{ContentHTML: rawHTML}
	}

	out := Article{
		Title:       article.Title,
		Byline:      article.Byline,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		Language:    article.Language,
		ContentHTML: article.Content,
		Readable:    true,
	}
	if utf8.RuneCountInString(strings.TrimSpace(article.TextContent)) < minReadableLength {
		out.ContentHTML = rawHTML
		out.Readable = false
	}
	return out
}
