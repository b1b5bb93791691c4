package ingestion

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractTextFromHTML pulls readable text out of an HTML resume export,
// dropping script/style/nav noise. Falls back to the raw input when the
// document cannot be parsed.
func ExtractTextFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CleanText(html)
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td, div").Each(func(_ int, sel *goquery.Selection) {
		// Only leaf-ish nodes; containers repeat their children's text.
		if sel.Children().Filter("p, li, div, ul, ol, table").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(sel) == "li" {
			sb.WriteString("- ")
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	})

	extracted := sb.String()
	if strings.TrimSpace(extracted) == "" {
		extracted = doc.Text()
	}
	return CleanText(extracted)
}

// LooksLikeHTML reports whether an upload should go through HTML extraction.
func LooksLikeHTML(content string) bool {
	s := strings.ToLower(strings.TrimSpace(content))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html") ||
		strings.Contains(s, "<body")
}
