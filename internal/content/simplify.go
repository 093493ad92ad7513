package content

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const noiseTagSelector = "script, style, link, meta, noscript, iframe, header, footer, aside, nav, " +
	"form, button, input, svg, img, video, audio, advertisement, ads"

// noisePatterns mark navigation and advertising containers when found in a
// class or id, e.g. "global-nav", "ad-slot", "share-buttons".
var noisePatterns = []string{"nav", "menu", "sidebar", "footer", "header", "ad", "banner", "social", "share", "comment"}

// contentClassKeywords select the class names worth keeping as structural hints.
var contentClassKeywords = []string{"content", "article", "main", "body", "text", "post"}

var classCarriers = map[string]bool{"article": true, "main": true, "section": true, "div": true}

const maxKeptClasses = 2

var (
	whitespaceRun  = regexp.MustCompile(`[\s\p{Z}]+`)
	interTagSpaces = regexp.MustCompile(`>\s+<`)
)

// SimplifyHTML strips an HTML document down to the markup that helps locate
// the article body: no scripts, media, forms or navigation, no attributes
// other than content-indicating classes on block containers, no empty
// elements, and collapsed whitespace.
func SimplifyHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseTagSelector).Remove()

	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class := strings.ToLower(s.AttrOr("class", ""))
		id := strings.ToLower(s.AttrOr("id", ""))
		for _, pattern := range noisePatterns {
			if strings.Contains(class, pattern) || strings.Contains(id, pattern) {
				return true
			}
		}
		return false
	}).Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		reduceAttributes(s.Get(0))
	})

	// Checked in document order, so a parent whose only children are empty
	// tags survives while the children are dropped.
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" {
			s.Remove()
		}
	})

	rendered, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	rendered = whitespaceRun.ReplaceAllString(rendered, " ")
	rendered = interTagSpaces.ReplaceAllString(rendered, "><")
	return rendered, nil
}

func reduceAttributes(n *html.Node) {
	var kept []html.Attribute
	if classCarriers[n.Data] {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			var relevant []string
			for _, class := range strings.Fields(attr.Val) {
				if isContentClass(class) {
					relevant = append(relevant, class)
				}
			}
			if len(relevant) > maxKeptClasses {
				relevant = relevant[:maxKeptClasses]
			}
			if len(relevant) > 0 {
				kept = append(kept, html.Attribute{Key: "class", Val: strings.Join(relevant, " ")})
			}
		}
	}
	n.Attr = kept
}

func isContentClass(class string) bool {
	lower := strings.ToLower(class)
	for _, keyword := range contentClassKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
