// Package content classifies fetched payloads and extracts their title and
// body text. Extraction never fails: every extractor returns an outcome whose
// Success flag tells the caller whether the payload was usable.
package content

// Extension is the normalized file extension of a fetched payload.
type Extension string

// Known extensions. Classify may also return an unrecognized media subtype verbatim.
const (
	ExtHTML Extension = "html"
	ExtPDF  Extension = "pdf"
	ExtTXT  Extension = "txt"
	ExtJSON Extension = "json"
	ExtXML  Extension = "xml"
	ExtBin  Extension = "bin"
)

// Fetched is a retrieved payload ready for extraction.
type Fetched struct {
	URL       string
	Body      []byte
	MediaType string // declared Content-Type with parameters removed
	Extension Extension
}

// NewFetched classifies a payload and returns it as a Fetched value.
func NewFetched(url string, body []byte, contentType string) Fetched {
	return Fetched{
		URL:       url,
		Body:      body,
		MediaType: stripParams(contentType, false),
		Extension: Classify(contentType, url),
	}
}

// TitleMethod records how a title was obtained.
type TitleMethod string

// Title methods.
const (
	MethodHTMLTag       TitleMethod = "html_tag"
	MethodPDFMetadata   TitleMethod = "pdf_metadata"
	MethodFallback      TitleMethod = "fallback"
	MethodFallbackError TitleMethod = "fallback_error"
)

// TitleOutcome is the result of title extraction. Success is also true when
// a non-empty fallback supplied the title.
type TitleOutcome struct {
	Title   string      `json:"title"`
	Success bool        `json:"success"`
	Method  TitleMethod `json:"method"`
}

// TextOutcome is the result of text extraction. Chars counts characters, not
// bytes. An unsuccessful outcome means "no usable body", not a failure.
type TextOutcome struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
	Chars   int    `json:"word_count"`
}
