package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// MinContentLength is the minimum extracted text length, in characters, for an
// HTTP fetch to count as complete. Shorter pages are re-rendered in a browser.
const MinContentLength = 500

// DefaultBrowserTimeout bounds one headless render.
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered by JavaScript.
func ShouldUseBrowser(extractedText string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	log.Debug().Str("url", url).Msg("starting headless browser")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// give client-side rendering time to fill the article
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// consent banners often cover the article; ignore a missing button
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"], button[id*="agree"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	log.Debug().Str("url", url).Int("bytes", len(html)).Msg("rendered HTML")

	return html, nil
}

// Render renders urlStr with the default browser timeout and returns it as a
// Result with an HTML content type.
func (c *Client) Render(ctx context.Context, urlStr string) (*Result, error) {
	html, err := WithBrowser(ctx, urlStr, DefaultBrowserTimeout)
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:         urlStr,
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
		StatusCode:  200,
	}, nil
}

func (r *Result) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", r.URL, r.ContentType, len(r.Body))
}
