package content

import (
	"net/url"
	"path"
	"strings"
)

var mediaTypeExtensions = map[string]Extension{
	"text/html":             ExtHTML,
	"application/xhtml+xml": ExtHTML,
	"application/json":      ExtJSON,
	"application/xml":       ExtXML,
	"text/xml":              ExtXML,
	"text/plain":            ExtTXT,
	"application/pdf":       ExtPDF,
}

var urlSuffixExtensions = map[string]Extension{
	"html": ExtHTML,
	"htm":  ExtHTML,
	"pdf":  ExtPDF,
	"txt":  ExtTXT,
	"json": ExtJSON,
	"xml":  ExtXML,
}

// Classify maps a declared media type and source URL to an extension.
// It is total: with no usable signal it returns html.
func Classify(mediaType, sourceURL string) Extension {
	mime := stripParams(mediaType, true)

	if ext, ok := mediaTypeExtensions[mime]; ok {
		return ext
	}

	if mime == "" {
		if ext, ok := urlSuffixExtensions[urlSuffix(sourceURL)]; ok {
			return ext
		}
		return ExtHTML
	}

	if i := strings.LastIndex(mime, "/"); i >= 0 {
		return Extension(mime[i+1:])
	}
	return ExtBin
}

func stripParams(mediaType string, lower bool) string {
	mime, _, _ := strings.Cut(mediaType, ";")
	mime = strings.TrimSpace(mime)
	if lower {
		mime = strings.ToLower(mime)
	}
	return mime
}

// urlSuffix returns the lowercased text after the last "." of the URL path.
func urlSuffix(sourceURL string) string {
	p := sourceURL
	if u, err := url.Parse(sourceURL); err == nil {
		p = u.Path
	}
	if !strings.Contains(p, ".") {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
