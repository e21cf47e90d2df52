// Package extractor scrapes a product title and price out of raw markup
// using ordered fallback chains. Extraction is a pure function: malformed or
// partial markup degrades to the sentinel defaults, never to an error.
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"inflation-pipeline/models"
)

var (
	// titleTextRegexp matches an explicit "Title:" label in visible text.
	titleTextRegexp = regexp.MustCompile(`Title:\s*(.*)`)
	// priceTextRegexp matches the first plain number, optionally with cents.
	priceTextRegexp = regexp.MustCompile(`\d+(?:\.\d{2})?`)
)

// Fields is the best-effort extraction result. Both fields are always
// non-empty; a chain that finds nothing yields its sentinel.
type Fields struct {
	Title string
	Price string
}

// strategy is one candidate extraction step. The first strategy returning a
// non-empty trimmed value wins.
type strategy struct {
	name string
	fn   func(*goquery.Document) string
}

var titleChain = []strategy{
	{"product-title-id", selectorText("#productTitle")},
	{"legacy-title-id", selectorText("#btAsinTitle")},
	{"title-heading", selectorText("h1.title")},
	{"document-title", selectorText("title")},
	{"first-heading", selectorText("h1")},
	{"title-label-text", func(doc *goquery.Document) string {
		m := titleTextRegexp.FindStringSubmatch(doc.Text())
		if len(m) < 2 {
			return ""
		}
		return m[1]
	}},
}

var priceChain = []strategy{
	{"price-block", selectorText("#priceblock_saleprice, #priceblock_ourprice, #priceblock_dealprice")},
	{"price-whole", selectorText("span.a-price-whole")},
	{"generic-price", selectorText("span.a-price")},
	{"buybox-price", selectorText("span#price_inside_buybox")},
	{"numeric-text", func(doc *goquery.Document) string {
		return priceTextRegexp.FindString(doc.Text())
	}},
}

// Extract runs the title and price fallback chains over the given markup.
func Extract(html string) Fields {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The html5 parser recovers from any input; this only fires on
		// reader failure, which strings.Reader cannot produce.
		return Fields{Title: models.NoTitleFound, Price: models.NoPriceFound}
	}

	return Fields{
		Title: firstMatch(doc, titleChain, models.NoTitleFound),
		Price: firstMatch(doc, priceChain, models.NoPriceFound),
	}
}

func firstMatch(doc *goquery.Document, chain []strategy, sentinel string) string {
	for _, s := range chain {
		if v := strings.TrimSpace(s.fn(doc)); v != "" {
			return v
		}
	}
	return sentinel
}

func selectorText(sel string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		return doc.Find(sel).First().Text()
	}
}
