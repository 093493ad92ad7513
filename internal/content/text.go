package content

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
)

// Enhancer is an optional HTML extraction tier tried before the structural
// one. An unsuccessful outcome or an error falls through silently.
type Enhancer interface {
	Extract(ctx context.Context, body []byte) (TextOutcome, error)
}

// Extractor extracts body text from fetched payloads.
type Extractor struct {
	enhancer Enhancer
}

// NewExtractor returns an extractor. enhancer may be nil, in which case HTML
// uses only the structural tier.
func NewExtractor(enhancer Enhancer) *Extractor {
	return &Extractor{enhancer: enhancer}
}

// ExtractText returns the body text of doc. It never fails; an unsupported or
// unreadable payload yields an unsuccessful empty outcome.
func (x *Extractor) ExtractText(ctx context.Context, doc Fetched) (out TextOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("url", doc.URL).Interface("panic", r).Msg("text extraction failed")
			out = TextOutcome{}
		}
	}()

	switch doc.Extension {
	case ExtHTML:
		return x.extractHTML(ctx, doc)
	case ExtPDF:
		return textFromPDF(doc)
	case ExtTXT:
		return newTextOutcome(decodeText(doc.Body))
	default:
		return TextOutcome{}
	}
}

func (x *Extractor) extractHTML(ctx context.Context, doc Fetched) TextOutcome {
	if x.enhancer != nil {
		out, err := x.enhancer.Extract(ctx, doc.Body)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("url", doc.URL).Msg("AI extraction failed, using structural extraction")
		case out.Success:
			log.Info().Str("url", doc.URL).Int("chars", out.Chars).Msg("AI extraction succeeded")
			return out
		default:
			log.Info().Str("url", doc.URL).Msg("AI extraction rejected, using structural extraction")
		}
	}
	return textFromHTML(doc)
}

func newTextOutcome(text string) TextOutcome {
	return TextOutcome{Text: text, Success: true, Chars: utf8.RuneCountInString(text)}
}

// textFromHTML returns the visible text of <body> (or of the whole document),
// one trimmed text node per line.
func textFromHTML(doc Fetched) TextOutcome {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		log.Warn().Err(err).Str("url", doc.URL).Msg("HTML parse failed")
		return TextOutcome{}
	}

	root := parsed.Find("body").First()
	if root.Length() == 0 {
		root = parsed.Selection
	}
	return newTextOutcome(visibleText(root))
}

var invisibleElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if invisibleElements[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// textFromPDF joins per-page text with newlines. A page that yields no text
// contributes an empty line.
func textFromPDF(doc Fetched) TextOutcome {
	text, err := pdfText(doc.Body)
	if err != nil {
		log.Warn().Err(err).Str("url", doc.URL).Msg("PDF text extraction failed")
		return TextOutcome{}
	}
	return newTextOutcome(text)
}

func pdfText(body []byte) (text string, err error) {
	defer recoverPDF(&err)

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug().Err(err).Int("page", i).Msg("PDF page has no extractable text")
			pageText = ""
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

// decodeText decodes UTF-8, falling back to Latin-1 which accepts any byte sequence.
func decodeText(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
