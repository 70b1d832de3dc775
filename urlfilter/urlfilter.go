// Package urlfilter decides from a URL's shape alone whether a page is worth
// opening in a browser.
package urlfilter

import "strings"

// blockedSuffixes are file extensions that never render as an HTML page.
var blockedSuffixes = []string{
	// documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	// archives
	".zip", ".rar", ".tar", ".gz", ".7z",
	// media
	".mp3", ".mp4", ".avi", ".mov", ".wav",
	// images
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg",
	// executables
	".exe", ".dmg", ".app", ".deb", ".rpm",
}

// downloadMarkers flag document downloads that hide the extension behind a
// query string or a trailing path segment.
var downloadMarkers = []string{".doc", ".pdf", ".xls", ".ppt"}

// IsScrapeable reports whether rawURL is expected to render as HTML.
//
// Matching is case-insensitive and purely textual. A URL such as
// "https://x.org/file.pdf?x=1" passes the suffix rule and is only rejected
// when it also contains "/download/".
func IsScrapeable(rawURL string) bool {
	u := strings.ToLower(rawURL)

	for _, ext := range blockedSuffixes {
		if strings.HasSuffix(u, ext) {
			return false
		}
	}

	if strings.Contains(u, "/download/") {
		for _, m := range downloadMarkers {
			if strings.Contains(u, m) {
				return false
			}
		}
	}
	return true
}

// Partition splits urls into those worth scraping and those skipped,
// preserving input order in both.
func Partition(urls []string) (keep, skipped []string) {
	for _, u := range urls {
		if IsScrapeable(u) {
			keep = append(keep, u)
		} else {
			skipped = append(skipped, u)
		}
	}
	return keep, skipped
}
