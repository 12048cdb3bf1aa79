// Package extract reduces raw HTML to readable text.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseTags are removed wholesale before text extraction.
var noiseTags = []string{"script", "style", "nav", "footer", "aside", "header", "advertisement", "noscript", "iframe"}

// noiseClassTokens mark elements as boilerplate when their class attribute
// contains one of them.
var noiseClassTokens = []string{"advertisement", "ads", "ad", "sidebar", "menu", "navigation"}

// mainSelectors are tried in order by ExtractMain before falling back to the
// whole document.
var mainSelectors = []string{
	"main",
	"article",
	"[role=\"main\"]",
	".main-content",
	".content",
	".post-content",
	".entry-content",
	".article-content",
}

// Extract strips markup and boilerplate subtrees and returns the remaining
// text. Malformed markup never aborts extraction: the worst case is an empty
// string.
func Extract(rawHTML string) string {
	doc := parse(rawHTML)
	if doc == nil {
		return ""
	}

	removeNoise(doc)
	return doc.Text()
}

// ExtractMain behaves like Extract but first tries to narrow the document to
// a known content container, so navigation-heavy pages yield article text
// instead of chrome.
func ExtractMain(rawHTML string) string {
	doc := parse(rawHTML)
	if doc == nil {
		return ""
	}

	removeNoise(doc)

	for _, selector := range mainSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel.Text()
		}
	}

	return doc.Text()
}

func parse(rawHTML string) *goquery.Document {
	if strings.TrimSpace(rawHTML) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	return doc
}

func removeNoise(doc *goquery.Document) {
	doc.Find(strings.Join(noiseTags, ", ")).Remove()

	doc.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		class = strings.ToLower(class)
		for _, token := range noiseClassTokens {
			if strings.Contains(class, token) {
				sel.Remove()
				return
			}
		}
	})
}
