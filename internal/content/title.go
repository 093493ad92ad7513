package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// ExtractTitle resolves a title for doc, using fallback when the payload has
// none. It never panics and never returns an error.
func ExtractTitle(doc Fetched, fallback string) (out TitleOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("url", doc.URL).Interface("panic", r).Msg("title extraction failed")
			out = TitleOutcome{Title: fallback, Success: fallback != "", Method: MethodFallbackError}
		}
	}()

	var (
		title  string
		method TitleMethod
		err    error
	)
	switch doc.Extension {
	case ExtHTML:
		title, err = htmlTitle(doc.Body)
		method = MethodHTMLTag
	case ExtPDF:
		title, err = pdfTitle(doc.Body)
		method = MethodPDFMetadata
	default:
		return TitleOutcome{Title: fallback, Success: fallback != "", Method: MethodFallback}
	}

	if err == nil && title != "" {
		return TitleOutcome{Title: title, Success: true, Method: method}
	}
	if err != nil {
		log.Warn().Err(err).Str("url", doc.URL).Str("extension", string(doc.Extension)).Msg("title extraction failed")
	}

	if fallback != "" {
		return TitleOutcome{Title: fallback, Success: true, Method: MethodFallback}
	}
	if err != nil {
		return TitleOutcome{Method: MethodFallbackError}
	}
	return TitleOutcome{Method: MethodFallback}
}

func htmlTitle(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

func pdfTitle(body []byte) (title string, err error) {
	defer recoverPDF(&err)

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	return strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()), nil
}

// recoverPDF turns a panic inside the PDF reader into an error; the reader
// panics on some malformed files.
func recoverPDF(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF: %v", r)
	}
}
