package cleaner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MinCandidateLength is the trimmed rune length a main-content container's
// text must exceed before it is preferred over the whole document.
const MinCandidateLength = 100

// mainContentSelectors are tried in priority order.
var mainContentSelectors = compileSelectors(
	"main",
	"article",
	"[role=main]",
	".content",
	"#content",
	".main",
)

func compileSelectors(exprs ...string) []cascadia.Matcher {
	sels := make([]cascadia.Matcher, 0, len(exprs))
	for _, e := range exprs {
		sels = append(sels, cascadia.MustCompile(e))
	}
	return sels
}

// ExtractText converts rendered HTML into clean visible text.
//
// Script and style markup is removed before anything else. The first
// main-content container with enough text wins; otherwise the whole
// document's text is used. Lines are trimmed and lines of two runes or fewer
// are dropped. ExtractText never fails: unparseable input yields "".
func ExtractText(rawHTML string) string {
	cleaned := stripScriptsAndStyles(rawHTML)

	doc, err := html.Parse(strings.NewReader(cleaned))
	if err != nil {
		return ""
	}

	for _, sel := range mainContentSelectors {
		for _, n := range cascadia.QueryAll(doc, sel) {
			text := visibleText(n)
			if utf8.RuneCountInString(strings.TrimSpace(text)) > MinCandidateLength {
				return normalizeLines(text)
			}
		}
	}

	return normalizeLines(visibleText(doc))
}

// stripScriptsAndStyles removes the serialized markup of every script and
// style element from rawHTML.
func stripScriptsAndStyles(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	cleaned := rawHTML
	doc.Find("script, style").Each(func(_ int, s *goquery.Selection) {
		markup, err := goquery.OuterHtml(s)
		if err != nil || markup == "" {
			return
		}
		cleaned = strings.ReplaceAll(cleaned, markup, "")
	})
	return cleaned
}

// skippedElements never contribute text, even if their markup survived
// textual removal.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// blockElements start and end a line.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Br: true, atom.Dd: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true,
	atom.Tr: true, atom.Ul: true, atom.Body: true,
}

// visibleText returns the text under n, with newlines at block boundaries.
func visibleText(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n, false)
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		if inPre {
			b.WriteString(n.Data)
		} else {
			b.WriteString(collapseSpace(n.Data))
		}
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	pre := inPre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, pre)
	}
	if block {
		b.WriteByte('\n')
	}
}

// collapseSpace folds whitespace runs to single spaces, keeping one space at
// either edge so adjacent inline elements stay separated.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(r) {
		out = " " + out
	}
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(r) {
		out += " "
	}
	return out
}

// normalizeLines trims every line and drops empty lines and lines of two
// runes or fewer.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 2 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
